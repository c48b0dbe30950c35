package reviewpresenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/park285/cheese-review/pkg/reviewdto"
)

// Presenter writes formatted text and board images without coupling to the
// command loop.
type Presenter struct {
	out       io.Writer
	saveImage func(name string, png []byte) error
}

func NewPresenter(out io.Writer, saveImage func(name string, png []byte) error) *Presenter {
	return &Presenter{out: out, saveImage: saveImage}
}

func (p *Presenter) Text(message string) error {
	if p == nil || p.out == nil {
		return nil
	}
	message = strings.TrimRight(message, "\n")
	if strings.TrimSpace(message) == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.out, message)
	return err
}

// Board prints message and stores the view's board image when there is one.
func (p *Presenter) Board(message string, view *reviewdto.ReviewView) error {
	if p == nil {
		return nil
	}
	if err := p.Text(message); err != nil {
		return err
	}
	if view == nil || len(view.BoardImage) == 0 || p.saveImage == nil {
		return nil
	}
	return p.saveImage(ImageName(view), view.BoardImage)
}

// ImageName is "<game>-<ply>.png"; ply 000 is the start position.
func ImageName(view *reviewdto.ReviewView) string {
	id := view.GameID
	if id == "" {
		id = "board"
	}
	return fmt.Sprintf("%s-%03d.png", id, view.Cursor+1)
}
