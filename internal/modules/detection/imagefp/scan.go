package imagefp

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"regexp"
	"strings"
)

const (
	metadataWindow = 4000
	entropyWindow  = 100
	jpegWindow     = 4096

	naturalEntropyMin = 6.5
	naturalEntropyMax = 7.8

	pointsSignature     = 25
	pointsGenericMarker = 20
	pointsNoCamera      = 15
	pointsNoGPSOrTime   = 5
	pointsCamera        = -20
	pointsEntropy       = 10
	pointsPNGText       = 30
	pointsPNGMinimal    = 15
	pointsJPEGEntropy   = 10
	pointsExactSize     = 95
	pointsSizeRange     = 20
	pointsFilenameTool  = 15
	pointsFilenameAI    = 10
	pointsAIDimensions  = 10
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}

	exifDateTime = regexp.MustCompile(`\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}`)

	aiDimensions = map[[2]int]struct{}{
		{1792, 1024}: {}, {1024, 1792}: {}, {1536, 1024}: {}, {1024, 1536}: {},
		{1344, 768}: {}, {768, 1344}: {}, {1216, 832}: {}, {832, 1216}: {},
	}
)

// scan is the outcome of one scanner.
type scan struct {
	points  int
	signals []string
	// tool is a named generator identified with certainty by this scanner.
	tool string
	// votes are tools this scanner's weaker evidence points at.
	votes   []string
	generic bool
}

func (s *scan) add(points int, format string, args ...interface{}) {
	s.points += points
	s.signals = append(s.signals, fmt.Sprintf(format, args...))
}

func (s *scan) identify(tool string) {
	if s.tool == "" {
		s.tool = tool
	}
	s.vote(tool)
}

func (s *scan) vote(tool string) {
	for _, v := range s.votes {
		if v == tool {
			return
		}
	}
	s.votes = append(s.votes, tool)
}

func head(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}

func isPNG(data []byte) bool  { return bytes.HasPrefix(data, pngMagic) }
func isJPEG(data []byte) bool { return bytes.HasPrefix(data, jpegMagic) }

// scanMetadata looks for generator signatures and camera evidence in the
// file head.
func scanMetadata(data []byte, t *Table) scan {
	var s scan
	window := head(data, metadataWindow)
	ascii := strings.ToLower(string(window))
	hexView := hex.EncodeToString(window)

	for _, tool := range t.Tools {
		for _, sig := range tool.Signatures {
			if strings.Contains(ascii, sig) {
				s.add(pointsSignature, "metadata:%s:%s", tool.Name, sig)
				s.identify(tool.Name)
			}
		}
		for _, sig := range tool.HexSignatures {
			if strings.Contains(hexView, sig) {
				s.add(pointsSignature, "metadata:%s:hex", tool.Name)
				s.identify(tool.Name)
			}
		}
	}
	for _, m := range t.GenericMarkers {
		if strings.Contains(ascii, m) {
			s.add(pointsGenericMarker, "metadata:marker:%s", m)
			s.generic = true
		}
	}

	if isJPEG(data) {
		camera := ""
		for _, cam := range t.CameraMakes {
			if strings.Contains(ascii, cam) {
				camera = cam
				break
			}
		}
		if camera != "" {
			s.add(pointsCamera, "metadata:camera:%s", camera)
		} else {
			s.add(pointsNoCamera, "metadata:no-camera")
		}
		if !strings.Contains(ascii, "gps") && !exifDateTime.Match(window) {
			s.add(pointsNoGPSOrTime, "metadata:no-gps-or-timestamp")
		}
	}
	return s
}

// scanBinary checks byte entropy and format structure.
func scanBinary(data []byte, t *Table) scan {
	var s scan
	if len(data) == 0 {
		return s
	}
	if e := Entropy(head(data, entropyWindow)); e < naturalEntropyMin || e > naturalEntropyMax {
		s.add(pointsEntropy, "binary:entropy:%.2f", e)
	}

	switch {
	case isPNG(data):
		chunks := ParsePNGChunks(data)
		for _, tool := range t.Tools {
			for _, key := range tool.PNGTextKeys {
				if _, ok := chunks.TextKeys[key]; ok {
					s.add(pointsPNGText, "binary:png-text:%s", key)
					s.identify(tool.Name)
				}
			}
		}
		if chunks.Minimal() {
			s.add(pointsPNGMinimal, "binary:png-minimal-chunks")
		}
	case isJPEG(data):
		e := Entropy(head(data, jpegWindow))
		for _, tool := range t.Tools {
			if tool.JPEGEntropy != nil && e >= tool.JPEGEntropy.Min && e <= tool.JPEGEntropy.Max {
				s.add(pointsJPEGEntropy, "binary:jpeg-entropy:%s", tool.Name)
				s.vote(tool.Name)
				break
			}
		}
	}
	return s
}

// scanSize matches the byte count, then the file name when the size said
// nothing, then the pixel dimensions.
func scanSize(data []byte, size int64, fileName string, t *Table) scan {
	var s scan

	sizeHit := false
exact:
	for _, tool := range t.Tools {
		for _, n := range tool.ExactSizes {
			if n == size {
				s.add(pointsExactSize, "size:exact:%s", tool.Name)
				s.identify(tool.Name)
				sizeHit = true
				break exact
			}
		}
	}
	if !sizeHit {
	ranges:
		for _, tool := range t.Tools {
			for _, r := range tool.SizeRanges {
				if r.contains(size) {
					s.add(pointsSizeRange, "size:range:%s", tool.Name)
					s.vote(tool.Name)
					sizeHit = true
					break ranges
				}
			}
		}
	}

	if !sizeHit {
		name := strings.ToLower(fileName)
		matched := false
		for _, tool := range t.Tools {
			for _, p := range tool.Filenames {
				if name != "" && strings.Contains(name, p) {
					s.add(pointsFilenameTool, "filename:%s", tool.Name)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			for _, p := range t.GenericFilenames {
				if name != "" && strings.Contains(name, p) {
					s.add(pointsFilenameAI, "filename:generic:%s", p)
					break
				}
			}
		}
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		_, known := aiDimensions[[2]int{cfg.Width, cfg.Height}]
		square := cfg.Width == cfg.Height && cfg.Width >= 512 && cfg.Width%64 == 0
		if known || square {
			s.add(pointsAIDimensions, "visual:dimensions:%dx%d", cfg.Width, cfg.Height)
		}
	}
	return s
}

// Entropy is the Shannon entropy of b in bits per byte.
func Entropy(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	var counts [256]int
	for _, c := range b {
		counts[c]++
	}
	n := float64(len(b))
	e := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		e -= p * math.Log2(p)
	}
	return e
}

// PNGChunks summarizes the chunk layout of a PNG file.
type PNGChunks struct {
	Types    []string
	TextKeys map[string]struct{}
}

// Minimal reports a PNG with no physical size, time, EXIF or text chunks.
func (c PNGChunks) Minimal() bool {
	if len(c.Types) == 0 {
		return false
	}
	for _, t := range c.Types {
		switch t {
		case "pHYs", "tIME", "eXIf", "tEXt", "iTXt", "zTXt":
			return false
		}
	}
	return true
}

// ParsePNGChunks walks chunk headers until IEND or the end of data. Text
// chunk keywords are lowercased.
func ParsePNGChunks(data []byte) PNGChunks {
	out := PNGChunks{TextKeys: map[string]struct{}{}}
	if !isPNG(data) {
		return out
	}
	off := len(pngMagic)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])
		start := off + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			out.Types = append(out.Types, typ)
			break
		}
		out.Types = append(out.Types, typ)
		if typ == "tEXt" || typ == "iTXt" || typ == "zTXt" {
			body := data[start:end]
			if i := bytes.IndexByte(body, 0); i > 0 {
				out.TextKeys[strings.ToLower(string(body[:i]))] = struct{}{}
			}
		}
		if typ == "IEND" {
			break
		}
		off = end + 4
	}
	return out
}
