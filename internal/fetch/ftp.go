package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
)

// FTPFetcher retrieves ftp sources using RFC 959 PASV passive mode over
// net/textproto, the standard library's line-oriented protocol helper.
type FTPFetcher struct{}

func (f *FTPFetcher) Fetch(ctx context.Context, sourceURL string, dst io.Writer) error {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("fetch: parse ftp url %s: %w", sourceURL, err)
	}
	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("fetch: dial %s: %w", host, err)
	}
	defer conn.Close()

	tc := textproto.NewConn(conn)
	if _, _, err := tc.ReadResponse(220); err != nil {
		return fmt.Errorf("fetch: ftp greeting from %s: %w", host, err)
	}

	user := "anonymous"
	pass := "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	if err := tc.PrintfLine("USER %s", user); err != nil {
		return err
	}
	if _, _, err := tc.ReadResponse(331); err != nil {
		// some servers accept anonymous USER directly with 230
		if _, _, err2 := tc.ReadResponse(230); err2 != nil {
			return fmt.Errorf("fetch: ftp USER: %w", err)
		}
	} else {
		if err := tc.PrintfLine("PASS %s", pass); err != nil {
			return err
		}
		if _, _, err := tc.ReadResponse(230); err != nil {
			return fmt.Errorf("fetch: ftp PASS: %w", err)
		}
	}

	if err := tc.PrintfLine("TYPE I"); err != nil {
		return err
	}
	if _, _, err := tc.ReadResponse(200); err != nil {
		return fmt.Errorf("fetch: ftp TYPE I: %w", err)
	}

	dataAddr, err := passiveMode(tc)
	if err != nil {
		return err
	}

	var dd net.Dialer
	dataConn, err := dd.DialContext(ctx, "tcp", dataAddr)
	if err != nil {
		return fmt.Errorf("fetch: dial data connection %s: %w", dataAddr, err)
	}
	defer dataConn.Close()

	if err := tc.PrintfLine("RETR %s", u.Path); err != nil {
		return err
	}
	if _, _, err := tc.ReadResponse(150); err != nil {
		return fmt.Errorf("fetch: ftp RETR %s: %w", u.Path, err)
	}

	if _, err := io.Copy(dst, dataConn); err != nil {
		return fmt.Errorf("fetch: copy ftp data for %s: %w", u.Path, err)
	}

	if _, _, err := tc.ReadResponse(226); err != nil {
		return fmt.Errorf("fetch: ftp transfer completion for %s: %w", u.Path, err)
	}
	return nil
}

// passiveMode issues PASV and decodes the "h1,h2,h3,h4,p1,p2" reply into a
// dialable host:port.
func passiveMode(tc *textproto.Conn) (string, error) {
	if err := tc.PrintfLine("PASV"); err != nil {
		return "", err
	}
	_, line, err := tc.ReadResponse(227)
	if err != nil {
		return "", fmt.Errorf("fetch: ftp PASV: %w", err)
	}

	start := strings.Index(line, "(")
	end := strings.Index(line, ")")
	if start < 0 || end < 0 || end <= start {
		return "", fmt.Errorf("fetch: malformed PASV reply %q", line)
	}
	parts := strings.Split(line[start+1:end], ",")
	if len(parts) != 6 {
		return "", fmt.Errorf("fetch: malformed PASV address %q", line)
	}
	p1, err := strconv.Atoi(parts[4])
	if err != nil {
		return "", fmt.Errorf("fetch: malformed PASV port: %w", err)
	}
	p2, err := strconv.Atoi(parts[5])
	if err != nil {
		return "", fmt.Errorf("fetch: malformed PASV port: %w", err)
	}
	port := p1*256 + p2
	host := strings.Join(parts[:4], ".")
	return fmt.Sprintf("%s:%d", host, port), nil
}
