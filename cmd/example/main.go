package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/imagefile"
	"github.com/spf13/afero"
)

// main is just a example main to play with minifat.
// It maps the given image, writes a file through the afero interface and reads it back.
func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) <= 0 {
		fmt.Println("Please provide a filename.")
		os.Exit(1)
	}

	mapped, err := imagefile.Map(argsWithoutProg[0], minifat.Config{}, nil)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer mapped.Close()

	used, total := mapped.Usage()
	fmt.Printf("Opened volume with %v/%v clusters used\n\n", used, total)

	fat := minifat.NewFs(mapped.Volume)

	err = afero.WriteFile(fat, "example.txt", []byte("Hello from the example, this file lives in a single cluster."), 0644)
	if err != nil {
		fmt.Println("could not write the file", err)
		os.Exit(1)
	}

	afero.Walk(fat, "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size())
		return nil
	})

	file, err := fat.Open("example.txt")
	if err != nil {
		fmt.Println("could not open the file", err)
		os.Exit(1)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		fmt.Println("could not stat the file", err)
		os.Exit(1)
	}
	buffer := make([]byte, stat.Size())
	n, err := file.Read(buffer)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println(stat.Size(), n)
	fmt.Println("\n\nContent of " + stat.Name() + ":\n\n" + string(buffer))

	buffer = make([]byte, 16)
	offset, err := file.Seek(6, io.SeekStart)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}
	fmt.Println(offset, err)

	n, err = file.Read(buffer)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println(stat.Size(), n)
	fmt.Println("\n\nContent of " + stat.Name() + " using an offset and small buffer:\n\n" + string(buffer[:n]))

	if err := mapped.Flush(); err != nil {
		fmt.Println("could not flush the image", err)
		os.Exit(1)
	}
}
