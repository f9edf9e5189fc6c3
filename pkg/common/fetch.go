// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FetchOpts holds knobs for robust fetching.
type FetchOpts struct {
	Timeout        time.Duration // total request timeout (incl. redirects)
	MaxSize        int64         // hard cap for body
	AllowedMIMEs   []string      // allowlist of MIME types (prefix match when ending in "/")
	UserAgent      string        // default if empty: "AlgoVisualizer/1.0"
	Retries        int           // retry count for transient network/5xx/429
	RetryBaseDelay time.Duration // base backoff

	S3Region    string // empty uses the AWS default chain
	S3Endpoint  string // S3 compatible endpoint, path style addressing is used when set
	S3AccessKey string // static credentials, empty uses the AWS default chain
	S3SecretKey string
}

// IsRemote reports whether path names a resource FetchRemoteBytes can load.
func IsRemote(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, HTTPStr+"://") || strings.HasPrefix(p, HTTPSStr+"://") || strings.HasPrefix(p, "s3://")
}

// FetchRemoteBytes fetches raw bytes from HTTP(S) or s3:// and returns them
// with their content type.
func FetchRemoteBytes(ctx context.Context, rawURL string, opts FetchOpts) ([]byte, string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1 << 20
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 200 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "AlgoVisualizer/1.0"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case HTTPStr, HTTPSStr:
		return fetchHTTP(ctx, rawURL, opts)
	case "s3":
		return fetchS3(ctx, u, opts)
	default:
		return nil, "", fmt.Errorf("unsupported scheme in URL: %s", rawURL)
	}
}

// FetchRemoteText fetches a text document, refusing binary content types.
func FetchRemoteText(ctx context.Context, rawURL string, opts FetchOpts) (string, error) {
	if len(opts.AllowedMIMEs) == 0 {
		opts.AllowedMIMEs = []string{"text/", "application/json", "application/octet-stream", "application/x-python"}
	}
	b, _, err := FetchRemoteBytes(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fetchHTTP(ctx context.Context, rawURL string, opts FetchOpts) ([]byte, string, error) {
	client := &http.Client{Timeout: opts.Timeout}

	var lastErr error
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	delay := opts.RetryBaseDelay

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(delay):
			}
			delay = backoff(delay)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", opts.UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			if !isTransientNetErr(err) {
				return nil, "", fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			continue
		}

		ctype := strings.TrimSpace(resp.Header.Get("Content-Type"))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			if !shouldRetryStatus(resp.StatusCode) {
				return nil, ctype, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("non-2xx status: %d", resp.StatusCode)
			continue
		}

		if resp.ContentLength > opts.MaxSize {
			_ = resp.Body.Close()
			return nil, ctype, fmt.Errorf("response too large: %d > %d", resp.ContentLength, opts.MaxSize)
		}

		if len(opts.AllowedMIMEs) > 0 && ctype != "" {
			mt, _, _ := mime.ParseMediaType(ctype)
			if !mimeAllowed(mt, opts.AllowedMIMEs) {
				_ = resp.Body.Close()
				return nil, ctype, fmt.Errorf("content-type %q not allowed", mt)
			}
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, opts.MaxSize+1))
		_ = resp.Body.Close()
		if readErr != nil {
			if !isTransientNetErr(readErr) {
				return nil, ctype, fmt.Errorf("read body: %w", readErr)
			}
			lastErr = readErr
			continue
		}
		if int64(len(data)) > opts.MaxSize {
			return nil, ctype, fmt.Errorf("response exceeded limit (%d bytes)", opts.MaxSize)
		}
		return data, ctype, nil
	}

	// every attempt hit a transient failure
	return nil, "", fmt.Errorf("request failed after %d attempt(s): %w", retries+1, lastErr)
}

func fetchS3(ctx context.Context, u *url.URL, opts FetchOpts) ([]byte, string, error) {
	bkt := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bkt == "" || key == "" {
		return nil, "", fmt.Errorf("invalid s3 URL: %s", u.String())
	}

	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.S3Region))
	}
	if opts.S3AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	goctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	out, err := client.GetObject(goctx, &s3.GetObjectInput{
		Bucket: aws.String(bkt),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("s3 get: %w", err)
	}
	defer out.Body.Close() //nolint:errcheck // Don't lint for error not checked, this is a defer statement

	data, err := io.ReadAll(io.LimitReader(out.Body, opts.MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("s3 read: %w", err)
	}
	if int64(len(data)) > opts.MaxSize {
		return nil, "", fmt.Errorf("s3 object exceeded limit (%d bytes)", opts.MaxSize)
	}

	ctype := aws.ToString(out.ContentType)
	if len(opts.AllowedMIMEs) > 0 && ctype != "" {
		mt, _, _ := mime.ParseMediaType(ctype)
		if !mimeAllowed(mt, opts.AllowedMIMEs) {
			return nil, ctype, fmt.Errorf("content-type %q not allowed", ctype)
		}
	}
	return data, ctype, nil
}

func mimeAllowed(mt string, allow []string) bool {
	mt = strings.ToLower(strings.TrimSpace(mt))
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		if strings.HasSuffix(a, "/") {
			if strings.HasPrefix(mt, a) {
				return true
			}
		} else if mt == a {
			return true
		}
	}
	return false
}

func shouldRetryStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isTransientNetErr(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof")
}

func backoff(d time.Duration) time.Duration {
	nd := d * 2
	if nd > 4*time.Second {
		nd = 4 * time.Second
	}
	return nd
}
