// Command fpinspect is a CLI smoke-test harness for the fingerprint
// pipeline, in the style of cmd/aligntest: flag-parsed, prints progress to
// stdout, exits 1 on error. Not a server -- the HTTP surface is out of
// scope for this module.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"

	_ "golang.org/x/image/bmp"

	"fpmatch/internal/fpimage"
	"fpmatch/internal/identify"
	"fpmatch/internal/minutiae"
	"fpmatch/pipeline"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	probePath := flag.String("probe", "", "path to a probe fingerprint image (BMP or PNG)")
	galleryPath := flag.String("gallery", "", "path to a gallery fingerprint image to compare against")
	flag.Parse()

	if *probePath == "" {
		fmt.Fprintln(os.Stderr, "usage: fpinspect -probe probe.png [-gallery gallery.png]")
		os.Exit(1)
	}

	probeImg, err := loadGray(*probePath)
	if err != nil {
		log.Printf("load probe: %v", err)
		os.Exit(1)
	}

	probeResult := pipeline.Extract(probeImg)
	if !probeResult.OK {
		fmt.Printf("probe extract failed: reason=%s error=%s\n", probeResult.Reason, probeResult.Error)
		os.Exit(1)
	}
	fmt.Printf("probe: %d minutiae\n", probeResult.MinutiaeCount)

	if *galleryPath == "" {
		return
	}

	galleryImg, err := loadGray(*galleryPath)
	if err != nil {
		log.Printf("load gallery: %v", err)
		os.Exit(1)
	}
	galleryResult := pipeline.Extract(galleryImg)
	if !galleryResult.OK {
		fmt.Printf("gallery extract failed: reason=%s error=%s\n", galleryResult.Reason, galleryResult.Error)
		os.Exit(1)
	}
	fmt.Printf("gallery: %d minutiae\n", galleryResult.MinutiaeCount)

	probeTemplate := minutiae.Template{Minutiae: probeResult.Minutiae}
	gallery := []identify.GalleryEntry{
		{ID: *galleryPath, Template: minutiae.Template{Minutiae: galleryResult.Minutiae}},
	}

	result := pipeline.Identify(probeTemplate, gallery)
	if result.Decision.Best != nil {
		best := result.Decision.Best
		fmt.Printf("best match: id=%s score=%.3f inliers=%d angle=%.1f\n",
			best.ID, best.Score, best.Inliers, best.AngleDeg)
	} else {
		fmt.Println("no accepted match")
	}
}

func loadGray(path string) (*fpimage.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := fpimage.NewImage(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			gray := uint8((r*299 + g*587 + b*114) / 1000 >> 8)
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, gray)
		}
	}
	return out, nil
}
