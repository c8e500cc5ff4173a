package main

import (
	ocrcompare "github.com/evany413/OCR-compare/apps/ocrcompare/cmd"
)

func main() {
	ocrcompare.Execute()
}
