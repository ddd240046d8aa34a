// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package keyfile reads the McAfee-generated XML keyfile and extracts the
// base64-encoded AES-256 key carried in its <key> element.
package keyfile

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/mcafuse/mcafuse/internal/cryptosec"
)

// Load reads path, walks its XML token stream looking for a <key> element
// that is a direct child of the root element, and returns its decoded
// contents. A <key> nested any deeper is ignored.
//
// encoding/xml's decoder has no DTD or external-entity expansion support, so
// unlike many XML libraries it is already immune to XXE/billion-laughs style
// attacks without needing a hardened third-party parser.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: opening %q: %w", path, err)
	}
	defer f.Close()

	raw, err := extractKeyText(f)
	if err != nil {
		return nil, fmt.Errorf("keyfile: %q: %w", path, err)
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("keyfile: %q: key is not valid base64: %w", path, err)
	}
	if len(key) != cryptosec.KeySize {
		return nil, fmt.Errorf("keyfile: %q: decoded key is %d bytes, want %d", path, len(key), cryptosec.KeySize)
	}
	return key, nil
}

// extractKeyText walks the root element's immediate children only, looking
// for <key>; it never descends into grandchildren, matching a scan that
// iterates just the root's direct children. Depth counts open elements: the
// root itself is depth 1, so its direct children sit at depth 2.
func extractKeyText(r io.Reader) (string, error) {
	const rootChildDepth = 2

	dec := xml.NewDecoder(r)

	var depth int
	var inKey bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == rootChildDepth && t.Name.Local == "key" {
				inKey = true
			}
		case xml.CharData:
			if inKey {
				return string(t), nil
			}
		case xml.EndElement:
			if depth == rootChildDepth && t.Name.Local == "key" {
				inKey = false
			}
			depth--
		}
	}
	return "", fmt.Errorf("no <key> element found")
}
