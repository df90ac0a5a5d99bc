// Package randomuser はRandom User APIのクライアントを提供する。
// 人物キャッシュのリフレッシュ時に一括取得の取得元として使用する。
package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultEndpoint はRandom User APIのエンドポイント。
	DefaultEndpoint = "https://randomuser.me/api/"
	// DefaultResults は1回の取得件数。
	DefaultResults = 5
	// DefaultNationality は取得する国籍。
	DefaultNationality = "us"
	// defaultMaxBodySize はレスポンスボディの読み取り上限（1MB）。
	defaultMaxBodySize int64 = 1 << 20
)

// ErrFetch は取得元からのデータ取得に失敗したことを表す。
// 通信エラー、非200ステータス、不正なペイロードのいずれもこのエラーをラップして返す。
var ErrFetch = errors.New("randomuser: fetch failed")

// Options はClientの取得条件。ゼロ値のフィールドはデフォルト値で補う。
type Options struct {
	Endpoint    string
	Results     int
	Nationality string
	MaxBodySize int64
}

// Client はRandom User APIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	endpoint    string
	results     int
	nationality string
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient:  httpClient,
		logger:      logger,
		endpoint:    opts.Endpoint,
		results:     opts.Results,
		nationality: opts.Nationality,
		maxBodySize: opts.MaxBodySize,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.results <= 0 {
		c.results = DefaultResults
	}
	if c.nationality == "" {
		c.nationality = DefaultNationality
	}
	if c.maxBodySize <= 0 {
		c.maxBodySize = defaultMaxBodySize
	}
	return c
}

// FetchUsers は設定された件数・国籍で人物データを一括取得する。
// 結果の順序は取得元の順序をそのまま保つ。
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	reqURL, err := c.requestURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTPリクエストの作成に失敗しました: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "PersonCache/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// キャンセル・タイムアウトは呼び出し元が区別できるようにそのまま返す
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("Random User APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: レスポンスボディの読み取りに失敗しました: %v", ErrFetch, err)
	}

	var payload Response
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Random User APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		if decodeErr == nil && payload.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrFetch, payload.Error)
		}
		return nil, fmt.Errorf("%w: ステータス %d", ErrFetch, resp.StatusCode)
	}

	if decodeErr != nil {
		c.logger.Error("Random User APIのレスポンスのパースに失敗しました",
			slog.String("error", decodeErr.Error()),
		)
		return nil, fmt.Errorf("%w: レスポンスJSONのパースに失敗しました: %v", ErrFetch, decodeErr)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFetch, payload.Error)
	}
	if payload.Results == nil {
		return nil, fmt.Errorf("%w: レスポンスにresultsが含まれていません", ErrFetch)
	}

	c.logger.Info("Random User APIから人物データを取得しました",
		slog.Int("count", len(payload.Results)),
	)

	return payload.Results, nil
}

// requestURL はエンドポイントにresultsとnatのクエリを付与したURLを返す。
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("エンドポイントURLが不正です: %s", c.endpoint)
	}

	q := u.Query()
	q.Set("results", strconv.Itoa(c.results))
	q.Set("nat", strings.ToLower(c.nationality))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
