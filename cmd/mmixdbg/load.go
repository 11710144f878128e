package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezrec/mmixdbg/debug"
	"github.com/ezrec/mmixdbg/workspace"
)

// isObject reports whether path names an object file rather than source.
func isObject(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mmo")
}

// loadFile loads an object file, or compiles a source file.
func loadFile(ctx context.Context, ws *workspace.Workspace, path string) (dbg *debug.Debugger, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	if isObject(path) {
		return ws.Load(ctx, data)
	}
	return ws.Compile(ctx, data)
}

// rawGitHubURL turns a GitHub file page URL into the URL of its raw
// contents. Raw URLs are returned unchanged.
func rawGitHubURL(page string) (raw string, err error) {
	u, err := url.Parse(page)
	if err != nil {
		return
	}

	switch u.Host {
	case "raw.githubusercontent.com":
	case "github.com", "www.github.com":
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 5 || parts[2] != "blob" {
			err = fmt.Errorf("not a GitHub file URL: %v", page)
			return
		}
		u.Host = "raw.githubusercontent.com"
		u.Path = "/" + strings.Join(append(parts[:2:2], parts[3:]...), "/")
		u.RawQuery = ""
		u.Fragment = ""
	default:
		err = fmt.Errorf("not a GitHub URL: %v", page)
		return
	}

	u.Scheme = "https"
	raw = u.String()
	return
}

// fetch downloads the body at rawURL.
func fetch(ctx context.Context, client *http.Client, rawURL string) (data []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("fetch %v: %v", rawURL, resp.Status)
		return
	}

	data, err = io.ReadAll(resp.Body)
	return
}
