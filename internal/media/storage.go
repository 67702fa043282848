// Package media はメディアストレージのコラボレータを提供する。
//
// 動画・画像ファイルを永続化し、耐久性のあるURLを返す。動画については
// 再生時間（秒）も併せて返す。呼び出し側はURLと再生時間のみを消費し、
// 保存の仕組みには関知しない。
package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/security"
)

// SavedVideo は保存された動画の参照情報。
type SavedVideo struct {
	// URL は保存先の耐久性のあるURL。
	URL string
	// Duration は再生時間（秒）。判定できなかった場合は0。
	Duration float64
}

// Storage はメディアストレージのインターフェースを定義する。
type Storage interface {
	// SaveVideo は動画ファイルを保存し、URLと再生時間を返す。
	SaveVideo(ctx context.Context, r io.Reader, filename string) (*SavedVideo, error)

	// SaveImage は画像ファイル（サムネイル・アバター等）を保存し、URLを返す。
	SaveImage(ctx context.Context, r io.Reader, filename string) (string, error)

	// ImportRemoteImage は外部URLから画像を取り込み、保存先URLを返す。
	// 取り込み先URLはSSRFガードで検証される。
	ImportRemoteImage(ctx context.Context, rawURL string) (string, error)
}

// maxRemoteImageSize は外部画像取り込みの上限サイズ。
const maxRemoteImageSize = 10 << 20 // 10MiB

// LocalStorage はローカルディスクへ保存するStorage実装。
type LocalStorage struct {
	baseDir   string
	baseURL   string
	ssrfGuard security.SSRFGuardService
}

// NewLocalStorage はLocalStorageを生成する。
// baseDirは保存先ディレクトリ、baseURLは配信URLのプレフィックス。
func NewLocalStorage(baseDir, baseURL string, guard security.SSRFGuardService) *LocalStorage {
	return &LocalStorage{
		baseDir:   baseDir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		ssrfGuard: guard,
	}
}

// SaveVideo は動画ファイルをローカルディスクへ保存する。
// MP4コンテナのmvhdボックスから再生時間を読み取る。
func (s *LocalStorage) SaveVideo(ctx context.Context, r io.Reader, filename string) (*SavedVideo, error) {
	path, url, err := s.save(r, filename)
	if err != nil {
		return nil, err
	}

	duration, err := probeMP4Duration(path)
	if err != nil {
		// 再生時間が読めないコンテナでも保存自体は成功として扱う
		duration = 0
	}

	return &SavedVideo{URL: url, Duration: duration}, nil
}

// SaveImage は画像ファイルをローカルディスクへ保存する。
func (s *LocalStorage) SaveImage(ctx context.Context, r io.Reader, filename string) (string, error) {
	_, url, err := s.save(r, filename)
	if err != nil {
		return "", err
	}
	return url, nil
}

// ImportRemoteImage は外部URLから画像を取り込む。
// SSRFガードによる事前検証と、DNS解決後のIP検証付きクライアントを使用する。
func (s *LocalStorage) ImportRemoteImage(ctx context.Context, rawURL string) (string, error) {
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("画像URLの検証に失敗しました: %w", err)
	}

	client := s.ssrfGuard.NewSafeClient(30*time.Second, maxRemoteImageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("画像取り込みリクエストの作成に失敗しました: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("画像の取得に失敗しました: status %d", resp.StatusCode)
	}

	ext := filepath.Ext(rawURL)
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	limited := io.LimitReader(resp.Body, maxRemoteImageSize)
	return s.SaveImage(ctx, limited, "remote"+ext)
}

// save はファイルを書き込み、保存パスと配信URLを返す。
// ファイル名はUUIDで採番され、元の名前は拡張子のみ引き継ぐ。
func (s *LocalStorage) save(r io.Reader, filename string) (string, string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", "", fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}

	name := uuid.New().String() + filepath.Ext(filename)
	path := filepath.Join(s.baseDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("ファイルの作成に失敗しました: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
	}

	return path, s.baseURL + "/" + name, nil
}

// probeMP4Duration はMP4コンテナのmoov/mvhdボックスから再生時間（秒）を読み取る。
// mvhdのtimescaleとdurationフィールドのみを参照する。
func probeMP4Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return scanBoxesForMvhd(f)
}

// scanBoxesForMvhd はトップレベルボックスを走査し、moov内のmvhdを探す。
func scanBoxesForMvhd(r io.ReadSeeker) (float64, error) {
	for {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return 0, fmt.Errorf("mvhdボックスが見つかりません")
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		boxType := string(header[4:8])

		if size == 1 {
			// 64bit拡張サイズ
			var ext [8]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return 0, err
			}
			size = int64(binary.BigEndian.Uint64(ext[:])) - 8
		}
		if size < 8 {
			return 0, fmt.Errorf("不正なボックスサイズ: %d", size)
		}

		switch boxType {
		case "moov":
			// moov直下を走査する
			continue
		case "mvhd":
			return readMvhd(r)
		default:
			if _, err := r.Seek(size-8, io.SeekCurrent); err != nil {
				return 0, err
			}
		}
	}
}

// readMvhd はmvhdボックス本体からtimescaleとdurationを読み取る。
func readMvhd(r io.Reader) (float64, error) {
	var version [4]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return 0, err
	}

	if version[0] == 1 {
		// version 1: creation/modification が64bit
		var body [28]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return 0, err
		}
		timescale := binary.BigEndian.Uint32(body[16:20])
		duration := binary.BigEndian.Uint64(body[20:28])
		if timescale == 0 {
			return 0, fmt.Errorf("timescaleが0")
		}
		return float64(duration) / float64(timescale), nil
	}

	// version 0: creation/modification が32bit
	var body [16]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return 0, err
	}
	timescale := binary.BigEndian.Uint32(body[8:12])
	duration := binary.BigEndian.Uint32(body[12:16])
	if timescale == 0 {
		return 0, fmt.Errorf("timescaleが0")
	}
	return float64(duration) / float64(timescale), nil
}

var _ Storage = (*LocalStorage)(nil)
