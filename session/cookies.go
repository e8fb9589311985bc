package session

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadCookies reads a Netscape cookie file. A missing file yields no cookies.
// Expiry is ignored, matching browsers exporting session cookies with 0.
func LoadCookies(path string) (cookies []*http.Cookie, err error) {
	f, err := os.Open(path)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("open cookies file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("close cookies file: %v", closeErr))
		}
	}()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("cookies file line %d: expected 7 fields, got %d", lineNum, len(fields))
		}

		cookie := &http.Cookie{ //nolint:exhaustruct
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if exp, err := strconv.ParseInt(fields[4], 10, 64); nil == err && exp > 0 {
			cookie.Expires = time.Unix(exp, 0).UTC()
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); nil != err {
		return nil, fmt.Errorf("scan cookies file: %v", err)
	}

	return cookies, nil
}

func findCookie(cookies []*http.Cookie, name string) (*http.Cookie, bool) {
	if name == "" {
		return nil, false
	}

	for _, c := range cookies {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}
