package main

import (
	"os"

	"github.com/aligator/minifat/checkpoint"
	"github.com/aligator/minifat/imagefile"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newCmd(imagefile.NewOsStore()).Execute(); err != nil {
		log.Trace(checkpoint.Trace(err))
		os.Exit(1)
	}
}
