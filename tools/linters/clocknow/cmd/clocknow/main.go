package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/rezkam/pomotodo/tools/linters/clocknow"
)

func main() {
	singlechecker.Main(clocknow.Analyzer)
}
