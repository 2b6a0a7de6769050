// Package carousel holds the navigation state of an image gallery with a
// zoomable lightbox view.
package carousel

import "fmt"

// SwipeThreshold is the swipe power above which a drag changes the slide.
const SwipeThreshold = 10000.0

// Image is one slide.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Carousel tracks the current slide, the last move direction and zoom state.
// The zero value is an empty carousel.
type Carousel struct {
	images    []Image
	index     int
	zoomed    bool
	direction int
}

func New(images []Image) *Carousel {
	return &Carousel{images: images}
}

func (c *Carousel) Len() int { return len(c.images) }

func (c *Carousel) Index() int { return c.index }

// Direction is +1 after Advance, -1 after Retreat and 0 before any move.
func (c *Carousel) Direction() int { return c.direction }

func (c *Carousel) Images() []Image { return c.images }

// Current returns the active slide, or false when there are no images.
func (c *Carousel) Current() (Image, bool) {
	if len(c.images) == 0 {
		return Image{}, false
	}
	return c.images[c.index], true
}

func (c *Carousel) Advance() { c.paginate(1) }

func (c *Carousel) Retreat() { c.paginate(-1) }

func (c *Carousel) paginate(dir int) {
	n := len(c.images)
	if n == 0 {
		return
	}
	c.direction = dir
	c.index = wrap(c.index+dir, n)
}

// Goto moves to i, wrapping any integer into range.
func (c *Carousel) Goto(i int) {
	n := len(c.images)
	if n == 0 {
		return
	}
	next := wrap(i, n)
	switch {
	case next > c.index:
		c.direction = 1
	case next < c.index:
		c.direction = -1
	}
	c.index = next
}

// Drag applies the end of a horizontal drag gesture. A strong swipe to the
// left advances, to the right retreats. It reports whether the slide changed.
func (c *Carousel) Drag(offset, velocity float64) bool {
	if len(c.images) == 0 {
		return false
	}
	power := SwipePower(offset, velocity)
	switch {
	case power < -SwipeThreshold:
		c.Advance()
		return true
	case power > SwipeThreshold:
		c.Retreat()
		return true
	}
	return false
}

// SwipePower is |offset| scaled by velocity; its sign follows the velocity.
func SwipePower(offset, velocity float64) float64 {
	if offset < 0 {
		offset = -offset
	}
	return offset * velocity
}

func (c *Carousel) Zoom() {
	if len(c.images) > 0 {
		c.zoomed = true
	}
}

func (c *Carousel) Unzoom() { c.zoomed = false }

func (c *Carousel) ToggleZoom() {
	if c.zoomed {
		c.Unzoom()
		return
	}
	c.Zoom()
}

func (c *Carousel) Zoomed() bool { return c.zoomed }

// Counter renders the 1-based position, e.g. "2 / 5".
func (c *Carousel) Counter() string {
	if len(c.images) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", c.index+1, len(c.images))
}

// NextIndex and PrevIndex give the neighbours of the current slide for links.
func (c *Carousel) NextIndex() int { return wrap(c.index+1, max(len(c.images), 1)) }

func (c *Carousel) PrevIndex() int { return wrap(c.index-1, max(len(c.images), 1)) }

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
