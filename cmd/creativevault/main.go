// Package main 启动 creativevault.
package main

import (
	"os"

	"github.com/yeisme/creativevault/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
