// Package metadata fetches book information for scanned ISBNs from the
// OpenLibrary API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// BookMetadata contains the book information used to create a library entry.
type BookMetadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	ISBN     string `json:"isbn,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	coversURL   string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a new OpenLibrary API client with rate
// limiting.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://openlibrary.org",
		coversURL:   "https://covers.openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

type openLibraryBook struct {
	Title   string `json:"title"`
	ByLine  string `json:"by_statement"`
	Authors []struct {
		Key string `json:"key"`
	} `json:"authors"`
	Covers []int `json:"covers"`
}

type openLibraryAuthor struct {
	Name         string `json:"name"`
	PersonalName string `json:"personal_name"`
}

// SearchByISBN looks up a book by its ISBN and returns metadata.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	c.rateLimiter.wait()

	url := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Clipshelf/1.0 (https://github.com/clipshelf/clipshelf)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ISBN not found: %s", isbn)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var bookData openLibraryBook
	if err := json.NewDecoder(resp.Body).Decode(&bookData); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	metadata := &BookMetadata{
		Title: bookData.Title,
		ISBN:  isbn,
	}
	if len(bookData.Covers) > 0 {
		metadata.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, bookData.Covers[0])
	}

	if len(bookData.Authors) > 0 {
		authorName, err := c.fetchAuthorName(ctx, bookData.Authors[0].Key)
		if err == nil {
			metadata.Author = authorName
		}
	}
	if metadata.Author == "" && bookData.ByLine != "" {
		metadata.Author = strings.TrimSuffix(strings.TrimSpace(bookData.ByLine), ".")
	}

	return metadata, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	c.rateLimiter.wait()

	url := fmt.Sprintf("%s%s.json", c.baseURL, authorKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Clipshelf/1.0 (https://github.com/clipshelf/clipshelf)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status: %d", resp.StatusCode)
	}

	var author openLibraryAuthor
	if err := json.NewDecoder(resp.Body).Decode(&author); err != nil {
		return "", err
	}

	if author.Name != "" {
		return author.Name, nil
	}
	return author.PersonalName, nil
}

// NormalizeISBN strips hyphens and spaces and validates the length. Returns
// "" for values that cannot be an ISBN-10 or ISBN-13.
func NormalizeISBN(isbn string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))

	if len(cleaned) != 10 && len(cleaned) != 13 {
		return ""
	}
	for i, r := range cleaned {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 may end in a checksum X.
		if len(cleaned) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return ""
	}
	return strings.ToUpper(cleaned)
}
