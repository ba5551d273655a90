//go:build windows

package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuathompsonlindley/rawcopy/copier"
	"github.com/joshuathompsonlindley/rawcopy/device"
	"github.com/joshuathompsonlindley/rawcopy/extents"
	"github.com/joshuathompsonlindley/rawcopy/logger"
	"github.com/joshuathompsonlindley/rawcopy/reporter"
	"github.com/joshuathompsonlindley/rawcopy/utils"
	"github.com/joshuathompsonlindley/rawcopy/volume"
)

func checkErr(err error, msg string) {
	if err != nil {
		log.Fatalln(msg, err)
	}
}

func main() {
	var destination string
	sourceFile := flag.String("file", "", "path to the source file to copy, must reside on an NTFS volume")
	flag.StringVar(&destination, "destination", "", "the path to write the copied data")
	showExtents := flag.Bool("showextents", false, "show the physical extents of the source file")
	volinfo := flag.Bool("volinfo", false, "show volume geometry information")
	hashFile := flag.String("hash", "", "hash the copied file, enter md5 or sha1")
	logactive := flag.Bool("log", false, "enable logging")

	flag.Parse() //ready to parse

	if *sourceFile == "" {
		fmt.Println("No source file was set, use -file")
		flag.Usage()
		return
	}

	if *logactive {
		now := time.Now()
		logfilename := "logs" + now.Format("2006-01-02T15_04_05") + ".txt"
		logger.InitializeLogger(*logactive, logfilename)
	}

	driveLetter, err := utils.DriveLetter(*sourceFile)
	checkErr(err, "cannot locate volume of source file")

	fileConn, err := device.OpenFile(*sourceFile)
	checkErr(err, "cannot open source file")
	defer fileConn.Close()

	vol, err := volume.Open(driveLetter)
	checkErr(err, "cannot open volume")
	defer vol.Close()

	exts, err := extents.Resolve(fileConn)
	checkErr(err, "cannot resolve extents")

	rp := reporter.Reporter{ShowVolInfo: *volinfo, ShowExtents: *showExtents}
	rp.Show(vol.Geometry, exts)

	if destination != "" {
		cp := copier.Copier{Destination: destination, Hash: *hashFile}

		start := time.Now()
		copied, err := cp.Copy(vol, exts)
		checkErr(err, "copy failed")

		p := message.NewPrinter(language.English)
		p.Printf("Copied %d bytes from %s to %s in %f secs\n",
			copied, *sourceFile, destination, time.Since(start).Seconds())
	}
}
