package extract

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the drop-folder fetch.
type FTPOptions struct {
	Timeout time.Duration
}

// FetchFTP downloads the daily extract from an FTP drop URL into destDir and
// returns the local path. Credentials may be embedded in the URL; anonymous
// login is used otherwise.
func FetchFTP(ctx context.Context, ftpURL, destDir string, opts FTPOptions) (string, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	host, remotePath, user, pass, err := parseFTPURL(ftpURL)
	if err != nil {
		return "", err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", remotePath))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", eris.Wrap(err, "ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(user, pass); err != nil {
		return "", eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", eris.Wrap(err, "ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	localPath := filepath.Join(destDir, filepath.Base(remotePath))
	file, err := os.Create(localPath)
	if err != nil {
		return "", eris.Wrap(err, "create local extract")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, resp)
	if err != nil {
		return "", eris.Wrap(err, "write local extract")
	}

	zap.L().Info("ftp: extract downloaded",
		zap.String("path", localPath),
		zap.Int64("bytes", n),
	)
	return localPath, nil
}

// parseFTPURL extracts host (with port), path, and credentials from an FTP URL.
func parseFTPURL(rawURL string) (host, path, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", "", "", eris.New("empty path in ftp url")
	}

	user, pass = "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	return host, path, user, pass, nil
}
