// Package main provides the ddtensor CLI.
package main

import (
	"os"

	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer klog.Flush()
	if err := cli.NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}
