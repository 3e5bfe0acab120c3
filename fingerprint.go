package main

import (
	"image"
	"math/bits"
)

// Fingerprint is a 64-bit average-hash digest of one screen sample. The image
// is reduced to an 8x8 luma grid; each bit records whether its cell is
// brighter than the grid mean. Two fingerprints are compared by Hamming
// distance, so FingerprintBits is the maximum possible distance.
type Fingerprint uint64

const FingerprintBits = 64

const (
	hashGrid = 8
	// Sample points per cell edge. 4x4 points per cell keeps the cost flat
	// regardless of display resolution.
	hashSubsample = 4
)

// ComputeFingerprint digests an image into a Fingerprint. It never fails; a
// degenerate (empty) image hashes to zero.
func ComputeFingerprint(img image.Image) Fingerprint {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var cells [hashGrid * hashGrid]float64
	span := hashGrid * hashSubsample
	for gy := 0; gy < hashGrid; gy++ {
		for gx := 0; gx < hashGrid; gx++ {
			var sum float64
			for sy := 0; sy < hashSubsample; sy++ {
				for sx := 0; sx < hashSubsample; sx++ {
					// Sample the center of each sub-cell.
					x := b.Min.X + ((gx*hashSubsample+sx)*2+1)*w/(span*2)
					y := b.Min.Y + ((gy*hashSubsample+sy)*2+1)*h/(span*2)
					sum += luma(img, x, y)
				}
			}
			cells[gy*hashGrid+gx] = sum / (hashSubsample * hashSubsample)
		}
	}

	var mean float64
	for _, c := range cells {
		mean += c
	}
	mean /= float64(len(cells))

	var fp Fingerprint
	for i, c := range cells {
		if c > mean {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// HammingDistance counts differing bits between two fingerprints.
// 0 means identical.
func HammingDistance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

func luma(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}
