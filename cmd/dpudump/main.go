// Command dpudump reads a compiled artifact and prints its tensor,
// task, and barrier tables for inspection.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sbl8/dpuforge/serialize"
)

func main() {
	var (
		verbose = flag.Bool("verbose", false, "Print every tensor and task record")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <artifact.dpuf>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("failed to read artifact: %v", err)
	}

	artifact, err := serialize.Parse(data)
	if err != nil {
		log.Fatalf("failed to parse artifact: %v", err)
	}

	fmt.Printf("device=%d revision=%d clusters=%d\n",
		artifact.Header.Device, artifact.Header.Revision, artifact.Header.Clusters)
	fmt.Printf("tensors=%d tasks=%d barriers=%d\n",
		len(artifact.Tensors), len(artifact.Tasks), len(artifact.Barriers))

	if !*verbose {
		return
	}

	fmt.Println("\nTensors:")
	for _, ref := range artifact.Tensors {
		fmt.Printf("  #%d %-20s dtype=%s dims=%v locale=%s[%d] populated=%t\n",
			ref.Handle, ref.Name, ref.DType, ref.Dims, ref.Locale, ref.LocaleIndex, ref.Populated)
	}

	fmt.Println("\nTasks:")
	for _, task := range artifact.Tasks {
		fmt.Printf("  #%d %-20s kind=%s start=%d end=%d compressed=%t subtasks=%d\n",
			task.Op, task.Name, task.Kind, task.StartTime, task.EndTime,
			task.Compression, len(task.DMASubtasks))
	}

	fmt.Println("\nBarriers:")
	for _, b := range artifact.Barriers {
		fmt.Printf("  #%d producers=%d consumers=%d\n", b.Index, b.ProducerCount, b.ConsumerCount)
	}
}
