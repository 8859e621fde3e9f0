// Fetches book records from the Open Library search API and writes them as
// data/books.json, the seed file the server loads at startup.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"libraryhub/pkg/database"
)

const endpoint = "https://openlibrary.org/search.json"

type searchResp struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		ISBN             []string `json:"isbn"`
		FirstPublishYear int      `json:"first_publish_year"`
		Subject          []string `json:"subject"`
	} `json:"docs"`
}

func main() {
	outPath := flag.String("out", "data/books.json", "output json path")
	subject := flag.String("subject", "classics", "Open Library subject to fetch")
	n := flag.Int("n", 40, "number of books to fetch")
	copies := flag.Int("copies", 3, "total copies per book")
	flag.Parse()

	q := url.Values{}
	q.Set("subject", *subject)
	q.Set("limit", fmt.Sprint(*n))
	q.Set("fields", "title,author_name,isbn,first_publish_year,subject")

	resp, err := http.Get(endpoint + "?" + q.Encode())
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fmt.Println(string(raw))
		panic(fmt.Errorf("open library http status: %s", resp.Status))
	}

	var parsed searchResp
	if err := json.Unmarshal(raw, &parsed); err != nil {
		panic(err)
	}

	out := make([]database.SeedBook, 0, len(parsed.Docs))
	seen := map[string]bool{}

	for _, d := range parsed.Docs {
		title := strings.TrimSpace(d.Title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		author := "Unknown"
		if len(d.AuthorName) > 0 && strings.TrimSpace(d.AuthorName[0]) != "" {
			author = d.AuthorName[0]
		}
		isbn := ""
		if len(d.ISBN) > 0 {
			isbn = d.ISBN[0]
		}
		genre := *subject
		if len(d.Subject) > 0 && strings.TrimSpace(d.Subject[0]) != "" {
			genre = d.Subject[0]
		}

		out = append(out, database.SeedBook{
			Title:         title,
			Author:        author,
			ISBN:          isbn,
			Genre:         genre,
			PublishedYear: d.FirstPublishYear,
			TotalCopies:   *copies,
		})
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
		panic(err)
	}
	j, _ := json.MarshalIndent(out, "", "  ")
	if err := os.WriteFile(*outPath, j, 0644); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d books -> %s\n", len(out), *outPath)
}
