package camera

// Common webcam frame sizes, highest first.
var (
	Res1080p     = Resolution{Width: 1920, Height: 1080}
	ResUXGA      = Resolution{Width: 1600, Height: 1200}
	ResSXGA      = Resolution{Width: 1280, Height: 1024}
	ResSXGAMinus = Resolution{Width: 1280, Height: 960}
	Res720p      = Resolution{Width: 1280, Height: 720}
	ResXGA       = Resolution{Width: 1024, Height: 768}
	ResSVGA      = Resolution{Width: 800, Height: 600}
	ResVGA       = Resolution{Width: 640, Height: 480}
	Res360p      = Resolution{Width: 640, Height: 360}
	ResQVGA      = Resolution{Width: 320, Height: 240}
)

// Candidates returns the probe list, ordered highest to lowest.
// A fresh slice is returned so callers cannot mutate the table.
func Candidates() []Resolution {
	return []Resolution{
		Res1080p,
		ResUXGA,
		ResSXGA,
		ResSXGAMinus,
		Res720p,
		ResXGA,
		ResSVGA,
		ResVGA,
		Res360p,
		ResQVGA,
	}
}
