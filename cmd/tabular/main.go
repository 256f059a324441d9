// Package main provides the Tabular framework CLI.
package main

import (
	"fmt"
	"os"

	"github.com/tabular-ml/tabular/backend/webgpu"
	"github.com/tabular-ml/tabular/table"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Tabular %s\n", version)
			return
		case "backends":
			printBackends()
			return
		}
	}

	fmt.Println("Tabular - Tensor tables for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version     Show version")
	fmt.Println("  backends    List column backends and device availability")
}

func printBackends() {
	fmt.Println("Column backends:")
	for _, ct := range table.ColumnTypes() {
		fmt.Printf("  %-18s devices: %v\n", ct.String(), ct.SupportedDevices())
	}
	fmt.Println()
	if webgpu.IsAvailable() {
		gpu, err := webgpu.Default()
		if err != nil {
			fmt.Printf("WebGPU: unavailable (%v)\n", err)
			return
		}
		fmt.Printf("WebGPU: %s\n", gpu.Name())
	} else {
		fmt.Println("WebGPU: unavailable")
	}
}
