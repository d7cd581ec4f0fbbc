package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/driftsync/syncshell/internal/status"
)

// BitmapSize is the edge length of tray bitmaps in pixels.
const BitmapSize = 32

var bitmapColors = map[string]color.NRGBA{
	status.IconUpdated:  {R: 0x2e, G: 0xb8, B: 0x5c, A: 0xff},
	status.IconScanning: {R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	status.IconPaused:   {R: 0xf5, G: 0xa6, B: 0x23, A: 0xff},
}

var (
	bitmapMu    sync.Mutex
	bitmapCache = make(map[color.NRGBA][]byte)
)

// Bitmap returns a PNG for a tray icon asset: a filled disc in the state's
// color. Scanning animation frames alternate between two shades so the icon
// visibly pulses.
func Bitmap(asset string) []byte {
	c, ok := bitmapColors[asset]
	if !ok {
		c = bitmapColors[status.IconUpdated]
	}
	if strings.HasPrefix(asset, "scanning_anime") {
		c = bitmapColors[status.IconScanning]
		if frameIndex(asset)%2 == 1 {
			c.A = 0x99
		}
	}

	bitmapMu.Lock()
	defer bitmapMu.Unlock()
	if b, ok := bitmapCache[c]; ok {
		return b
	}
	b := disc(c)
	bitmapCache[c] = b
	return b
}

func frameIndex(asset string) int {
	n := 0
	for _, r := range asset {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}

func disc(c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, BitmapSize, BitmapSize))
	r := BitmapSize/2 - 2
	cx, cy := BitmapSize/2, BitmapSize/2
	for y := 0; y < BitmapSize; y++ {
		for x := 0; x < BitmapSize; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
