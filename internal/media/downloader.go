package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/search"
	"github.com/pders01/pixa/internal/storage"
	"github.com/pders01/pixa/internal/validation"
)

const maxImageSize = 100 << 20

// Ledger records downloads. *storage.Store implements it.
type Ledger interface {
	SaveDownload(d *storage.Download) error
	GetDownload(id int) (*storage.Download, error)
	DeleteDownload(id int) error
}

// Downloader saves full resolution images into a directory.
type Downloader struct {
	dir       string
	ledger    Ledger
	client    *http.Client
	validator *validation.URLValidator
	userAgent string
	listeners []search.DownloadListener
	now       func() time.Time
	log       *debuglog.FieldLogger
}

type DownloaderOption func(*Downloader)

func WithDownloadClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithURLValidator replaces the default https-only image URL check.
func WithURLValidator(v *validation.URLValidator) DownloaderOption {
	return func(d *Downloader) { d.validator = v }
}

func WithUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithListener registers l to hear about new and removed downloads.
func WithListener(l search.DownloadListener) DownloaderOption {
	return func(d *Downloader) {
		if l != nil {
			d.listeners = append(d.listeners, l)
		}
	}
}

func NewDownloader(dir string, ledger Ledger, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		dir:       dir,
		ledger:    ledger,
		client:    &http.Client{Timeout: 2 * time.Minute},
		validator: validation.NewImageURLValidator(),
		userAgent: "pixa/1.0",
		now:       time.Now,
		log:       debuglog.WithFields(map[string]interface{}{"component": "downloader"}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir is the directory files are written to.
func (d *Downloader) Dir() string { return d.dir }

// Download fetches the largest available rendition of img, writes it into
// the download directory and records it in the ledger.
func (d *Downloader) Download(ctx context.Context, img storage.Image) (*storage.Download, error) {
	var candidates []string
	for _, u := range []string{img.LargeImageURL, img.WebformatURL} {
		if u != "" {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("image %d has no downloadable URL", img.ID)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	dest, err := validation.JoinWithin(d.dir, fileNameFor(img, candidates[0]))
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, src := range candidates {
		n, err := d.fetchTo(ctx, src, dest)
		if err == nil {
			rec := &storage.Download{Image: img, Path: dest, Bytes: n, DownloadedAt: d.now()}
			if err := d.ledger.SaveDownload(rec); err != nil {
				return nil, fmt.Errorf("recording download: %w", err)
			}
			for _, l := range d.listeners {
				l.OnDownloaded(rec)
			}
			d.log.Infof("downloaded image %d to %s (%d bytes)", img.ID, dest, n)
			return rec, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.log.Warnf("download of image %d from %s failed: %v", img.ID, src, err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("downloading image %d: %w", img.ID, errors.Join(errs...))
}

// fileNameFor uses the preview URL's last segment, else "<id><ext of src>".
func fileNameFor(img storage.Image, src string) string {
	if name := validation.SanitizeFileName(img.FileName()); name != "" {
		return name
	}
	ext := ".jpg"
	if u, err := url.Parse(src); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return strconv.Itoa(img.ID) + ext
}

func (d *Downloader) fetchTo(ctx context.Context, src, dest string) (int64, error) {
	u, err := d.validator.Validate(src)
	if err != nil {
		return 0, fmt.Errorf("rejecting image URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, ".pixa-*.part")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("writing image: %w", err)
	}
	if n > maxImageSize {
		return 0, fmt.Errorf("image larger than %d bytes", maxImageSize)
	}
	if n == 0 {
		return 0, fmt.Errorf("empty response body")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("moving image into place: %w", err)
	}
	return n, nil
}

// Delete removes a download's file and its ledger entry. A file that is
// already gone is not an error.
func (d *Downloader) Delete(id int) error {
	rec, err := d.ledger.GetDownload(id)
	if err != nil {
		return err
	}
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", rec.Path, err)
	}
	if err := d.ledger.DeleteDownload(id); err != nil {
		return err
	}
	for _, l := range d.listeners {
		l.OnDeleted(id)
	}
	return nil
}
