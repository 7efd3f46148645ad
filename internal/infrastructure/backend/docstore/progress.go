package docstore

import "io"

// progressReader counts bytes read from the upload payload and emits whole
// percentages on the progress channel. Emissions are strictly increasing and
// capped at 100; sends never block, a slow consumer just misses intermediate
// values.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	progress chan<- int
}

func newProgressReader(r io.Reader, total int64, progress chan<- int) *progressReader {
	return &progressReader{r: r, total: total, last: -1, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.emit()
	}
	return n, err
}

func (p *progressReader) emit() {
	if p.total <= 0 {
		return
	}
	percent := int(p.read * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent <= p.last {
		return
	}
	p.last = percent
	select {
	case p.progress <- percent:
	default:
	}
}
