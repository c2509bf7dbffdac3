package render

import "fmt"

// Stats counts pipeline work since the last Clear.
type Stats struct {
	Triangles     int // DrawTriangle calls
	Skipped       int // Triangles dropped for non-finite screen coordinates
	Fragments     int // Span pixels inside the viewport
	PixelsWritten int // Fragments that passed the depth test
	DepthRejected int // Fragments behind an earlier write
}

func (s Stats) String() string {
	return fmt.Sprintf("tris=%d skipped=%d frags=%d written=%d rejected=%d",
		s.Triangles, s.Skipped, s.Fragments, s.PixelsWritten, s.DepthRejected)
}
