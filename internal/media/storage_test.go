package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildMinimalMP4 はftyp + moov/mvhd(version 0)だけの最小MP4を生成する。
func buildMinimalMP4(timescale, duration uint32) []byte {
	var buf bytes.Buffer
	writeBox(&buf, "ftyp", []byte("isom"))

	// mvhd本体: version(1) + flags(3) + creation(4) + modification(4) +
	// timescale(4) + duration(4)
	mvhd := make([]byte, 20)
	binary.BigEndian.PutUint32(mvhd[12:16], timescale)
	binary.BigEndian.PutUint32(mvhd[16:20], duration)

	var moovBody bytes.Buffer
	writeBox(&moovBody, "mvhd", mvhd)
	writeBox(&buf, "moov", moovBody.Bytes())

	return buf.Bytes()
}

func writeBox(buf *bytes.Buffer, boxType string, body []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(8+len(body)))
	copy(header[4:8], boxType)
	buf.Write(header[:])
	buf.Write(body)
}

func TestSaveVideo_ProbesDuration(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir, "http://localhost:8080/media", nil)

	// timescale=1000, duration=125500 → 125.5秒
	data := buildMinimalMP4(1000, 125500)
	saved, err := storage.SaveVideo(context.Background(), bytes.NewReader(data), "clip.mp4")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if saved.Duration != 125.5 {
		t.Errorf("Duration = %v, want 125.5", saved.Duration)
	}
	if !strings.HasPrefix(saved.URL, "http://localhost:8080/media/") {
		t.Errorf("URL = %s, want baseURLプレフィックス", saved.URL)
	}
	if !strings.HasSuffix(saved.URL, ".mp4") {
		t.Errorf("URL = %s, want 元の拡張子を維持", saved.URL)
	}
}

func TestSaveVideo_UnknownContainerDurationZero(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir, "http://localhost:8080/media", nil)

	saved, err := storage.SaveVideo(context.Background(), strings.NewReader("not an mp4"), "clip.webm")
	if err != nil {
		t.Fatalf("再生時間が読めなくても保存は成功すべき: %v", err)
	}
	if saved.Duration != 0 {
		t.Errorf("Duration = %v, want 0", saved.Duration)
	}
}

func TestSaveImage_WritesFile(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir, "http://localhost:8080/media/", nil)

	url, err := storage.SaveImage(context.Background(), strings.NewReader("png bytes"), "thumb.png")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	// baseURLの末尾スラッシュは正規化される
	if strings.Contains(url, "//thumb") || strings.Contains(strings.TrimPrefix(url, "http://"), "//") {
		t.Errorf("URL = %s, 二重スラッシュが含まれる", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("保存ファイルの読み取りに失敗: %v", err)
	}
	if string(content) != "png bytes" {
		t.Errorf("保存内容 = %q, want %q", content, "png bytes")
	}
}

func TestProbeMP4Duration_Version1(t *testing.T) {
	// version 1のmvhd: creation/modificationが64bit
	mvhd := make([]byte, 32)
	mvhd[0] = 1 // version
	binary.BigEndian.PutUint32(mvhd[20:24], 600)   // timescale
	binary.BigEndian.PutUint64(mvhd[24:32], 18000) // duration

	var buf bytes.Buffer
	var moovBody bytes.Buffer
	writeBox(&moovBody, "mvhd", mvhd)
	writeBox(&buf, "moov", moovBody.Bytes())

	dir := t.TempDir()
	path := filepath.Join(dir, "v1.mp4")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	duration, err := probeMP4Duration(path)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if duration != 30 {
		t.Errorf("duration = %v, want 30", duration)
	}
}
