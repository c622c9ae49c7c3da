// Package artwork caches channel images and coalesces concurrent fetches of
// the same channel into one request.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/webp"

	"github.com/five82/difm/internal/audioaddict"
	"github.com/five82/difm/internal/catalog"
)

// Fetcher starts an artwork download. *audioaddict.Session implements it.
type Fetcher interface {
	FetchArtworkAsync(image catalog.ChannelImage, size audioaddict.Size) *audioaddict.Future[[]byte]
}

var _ Fetcher = (*audioaddict.Session)(nil)

// Image is a downloaded artwork file.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Callback receives the outcome of a load.
type Callback func(Image, error)

// Cache maps channel ids to images. Successful loads are kept until the
// process exits; failures are not cached.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	images  map[int]Image
	pending map[int][]Callback
}

// NewCache returns a Cache backed by fetcher. A nil fetcher (including a nil
// *audioaddict.Session) is allowed; every miss then fails with
// audioaddict.ErrConfiguration.
func NewCache(fetcher Fetcher) *Cache {
	if s, ok := fetcher.(*audioaddict.Session); ok && s == nil {
		fetcher = nil
	}
	return &Cache{
		fetcher: fetcher,
		images:  make(map[int]Image),
		pending: make(map[int][]Callback),
	}
}

// LoadAsync delivers the channel's artwork to cb. A cached image is delivered
// before LoadAsync returns. Otherwise cb joins the waiters for the channel,
// starting a fetch if none is in flight, and is called once the fetch ends.
func (c *Cache) LoadAsync(channel catalog.Channel, size audioaddict.Size, cb Callback) {
	if cb == nil {
		cb = func(Image, error) {}
	}

	c.mu.Lock()
	if img, ok := c.images[channel.ID]; ok {
		c.mu.Unlock()
		cb(img, nil)
		return
	}
	if c.fetcher == nil {
		c.mu.Unlock()
		cb(Image{}, &audioaddict.Error{Op: "load artwork", Kind: audioaddict.ErrConfiguration, Err: fmt.Errorf("no artwork fetcher")})
		return
	}
	waiters, inFlight := c.pending[channel.ID]
	c.pending[channel.ID] = append(waiters, cb)
	c.mu.Unlock()

	if inFlight {
		return
	}
	future := c.fetcher.FetchArtworkAsync(channel.Image, size)
	go c.complete(channel.ID, future)
}

// Load is the blocking form of LoadAsync.
func (c *Cache) Load(ctx context.Context, channel catalog.Channel, size audioaddict.Size) (Image, error) {
	type result struct {
		img Image
		err error
	}
	done := make(chan result, 1)
	c.LoadAsync(channel, size, func(img Image, err error) {
		done <- result{img, err}
	})
	select {
	case r := <-done:
		return r.img, r.err
	case <-ctx.Done():
		return Image{}, ctx.Err()
	}
}

// Len reports how many images are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Cached returns the cached image for a channel id.
func (c *Cache) Cached(channelID int) (Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[channelID]
	return img, ok
}

func (c *Cache) complete(channelID int, future *audioaddict.Future[[]byte]) {
	<-future.Done()
	data, err := future.Result()

	var img Image
	if err == nil {
		img, err = decode(data)
	}

	c.mu.Lock()
	waiters := c.pending[channelID]
	delete(c.pending, channelID)
	if err == nil {
		c.images[channelID] = img
	}
	c.mu.Unlock()

	for _, cb := range waiters {
		cb(img, err)
	}
}

func decode(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, &audioaddict.Error{Op: "load artwork", Kind: audioaddict.ErrDecode, Err: err}
	}
	return Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
