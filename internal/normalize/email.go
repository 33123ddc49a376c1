package normalize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

// maxMIMEDepth bounds nested multipart recursion
const maxMIMEDepth = 8

// pdfAttachment is a PDF carried inside an email
type pdfAttachment struct {
	Name string
	Data []byte
}

// parsedEmail is the readable body of an email plus its PDF attachments.
// MIME structure and base64 payloads never reach the provider as text.
type parsedEmail struct {
	Subject string
	Body    string
	PDFs    []pdfAttachment
}

type emailWalker struct {
	plain []string
	html  []string
	pdfs  []pdfAttachment
}

// parseEmail splits an RFC 822 message into body text and PDF attachments.
// text/plain is preferred; text/html is used only when no plain body exists.
func parseEmail(raw []byte) (*parsedEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	w := &emailWalker{}
	if err := w.walk(msg.Header, msg.Body, 0); err != nil {
		return nil, err
	}

	body := strings.Join(w.plain, "\n")
	if strings.TrimSpace(body) == "" && len(w.html) > 0 {
		var parts []string
		for _, h := range w.html {
			parts = append(parts, htmlText(h))
		}
		body = strings.Join(parts, "\n")
	}

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	return &parsedEmail{
		Subject: subject,
		Body:    strings.TrimSpace(body),
		PDFs:    w.pdfs,
	}, nil
}

// partHeader is the subset of MIME headers the walker reads
type partHeader interface {
	Get(key string) string
}

func (w *emailWalker) walk(h partHeader, body io.Reader, depth int) error {
	if depth > maxMIMEDepth {
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
		params = map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read multipart: %w", err)
			}
			if err := w.walk(part.Header, part, depth+1); err != nil {
				return err
			}
		}
	}

	disposition, dparams, _ := mime.ParseMediaType(h.Get("Content-Disposition"))
	filename := dparams["filename"]
	if filename == "" {
		filename = params["name"]
	}
	isAttachment := disposition == "attachment"

	data, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("decode part: %w", err)
	}

	switch {
	case mediaType == "application/pdf" || (isAttachment && strings.EqualFold(filepath.Ext(filename), ".pdf")):
		if filename == "" {
			filename = "attachment.pdf"
		}
		if len(data) > 0 {
			w.pdfs = append(w.pdfs, pdfAttachment{Name: filename, Data: data})
		}
	case isAttachment:
		// other attachments are ignored
	case mediaType == "text/plain":
		w.plain = append(w.plain, decodeCharset(params["charset"], data))
	case mediaType == "text/html":
		w.html = append(w.html, decodeCharset(params["charset"], data))
	}
	return nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	}
	return r
}

// newlineStripper drops CR and LF so wrapped base64 decodes cleanly
type newlineStripper struct{ r io.Reader }

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		k, err := n.r.Read(p)
		j := 0
		for _, b := range p[:k] {
			if b != '\r' && b != '\n' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}

// decodeCharset converts a body to UTF-8; unknown charsets pass through
func decodeCharset(charset string, data []byte) string {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(data)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// htmlText extracts visible text from HTML, keeping one line per block element
func htmlText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "ul": true, "ol": true,
}
