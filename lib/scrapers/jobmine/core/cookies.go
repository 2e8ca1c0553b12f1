package core

import (
	"encoding/json"
	"net/http"
	"os"
	"time"
)

// persisted subset of http.Cookie, enough to restore a portal session
type storedCookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path"`
	Domain   string `json:"domain"`
	Expires  int64  `json:"expires"`
	Secure   bool   `json:"secure"`
	HttpOnly bool   `json:"http_only"`
}

// SaveCookies writes the session's cookies to the configured cookie
// file so they survive across runs.
func (c *Client) SaveCookies() error {
	if c.cookieFile == "" {
		return nil
	}

	jar := c.Http.GetClient().Jar
	if jar == nil {
		return nil
	}
	cookies := jar.Cookies(c.BaseUrl)

	stored := make([]storedCookie, len(cookies))
	for i, cookie := range cookies {
		stored[i] = storedCookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     cookie.Path,
			Domain:   cookie.Domain,
			Expires:  cookie.Expires.Unix(),
			Secure:   cookie.Secure,
			HttpOnly: cookie.HttpOnly,
		}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cookieFile, data, 0600)
}

func (c *Client) loadCookies() error {
	if c.cookieFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.cookieFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var stored []storedCookie
	err = json.Unmarshal(data, &stored)
	if err != nil {
		return err
	}

	cookies := make([]*http.Cookie, len(stored))
	for i, s := range stored {
		cookies[i] = &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		}
		if s.Expires > 0 {
			cookies[i].Expires = time.Unix(s.Expires, 0)
		}
	}
	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, cookies)
	return nil
}
