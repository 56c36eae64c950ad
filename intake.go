package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errEmptyPayload = errors.New("nothing to paste")

var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

type payloadKind int

const (
	payloadText payloadKind = iota
	payloadImage
)

// payload is a classified drop or paste.
type payload struct {
	kind    payloadKind
	content string // cleaned text, or the image source as a data or http url
	width   float64
	height  float64
}

func classifyPayload(raw string) (payload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return payload{}, errEmptyPayload
	}

	if strings.HasPrefix(trimmed, "data:image/") {
		_, data, err := decodeDataURL(trimmed)
		if err != nil {
			return payload{}, err
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return payload{}, fmt.Errorf("decode pasted image: %w", err)
		}
		return payload{kind: payloadImage, content: trimmed, width: float64(cfg.Width), height: float64(cfg.Height)}, nil
	}

	if u, err := url.Parse(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(u.Path))]; ok {
			return payload{kind: payloadImage, content: trimmed}, nil
		}
	}

	if path, ok := droppedPath(trimmed); ok {
		if _, isImage := imageExtensions[strings.ToLower(filepath.Ext(path))]; isImage {
			return loadImageFile(path)
		}
	}

	text := cleanClipboardText(raw)
	if strings.TrimSpace(text) == "" {
		return payload{}, errEmptyPayload
	}
	return payload{kind: payloadText, content: text}, nil
}

// droppedPath recognises a single file path as terminals paste it on drop:
// optionally quoted, with backslash-escaped spaces, or as a file:// uri.
func droppedPath(s string) (string, bool) {
	if strings.ContainsAny(s, "\n\r") {
		return "", false
	}
	if strings.HasPrefix(s, "file://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", false
		}
		s = u.Path
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "\\ ", " ")
	s = expandPath(s)
	info, err := os.Stat(s)
	if err != nil || info.IsDir() {
		return "", false
	}
	return s, true
}

func loadImageFile(path string) (payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payload{}, fmt.Errorf("read dropped image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return payload{}, fmt.Errorf("decode dropped image %s: %w", filepath.Base(path), err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = imageExtensions[strings.ToLower(filepath.Ext(path))]
	}
	return payload{
		kind:    payloadImage,
		content: encodeDataURL(mime, data),
		width:   float64(cfg.Width),
		height:  float64(cfg.Height),
	}, nil
}

// IntakePayload classifies raw and places the resulting bubble at the
// pointer position. Images keep their intrinsic size as the resize floor.
func IntakePayload(c *Canvas, raw string, at Point) (string, BubbleType, error) {
	p, err := classifyPayload(raw)
	if err != nil {
		return "", BubbleText, err
	}
	if p.kind == payloadImage {
		var opts []BubbleOption
		if p.width > 0 && p.height > 0 {
			opts = append(opts, WithMinSize(p.width, p.height))
		}
		return c.CreateBubble(BubbleImage, p.content, at.X, at.Y, dropImageWidth, dropImageHeight, opts...), BubbleImage, nil
	}
	return c.CreateBubble(BubbleText, p.content, at.X, at.Y, dropTextWidth, dropTextHeight), BubbleText, nil
}
