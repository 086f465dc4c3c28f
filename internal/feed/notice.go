package feed

// NoticeKind classifies what the viewer is showing instead of a stream.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeNoCamera
	NoticeError
	NoticeStreamError
)

// Notice is a user-visible status message.
type Notice struct {
	Kind    NoticeKind
	Message string
}

var noticeText = map[NoticeKind]string{
	NoticeNoCamera:    "No active camera",
	NoticeError:       "Could not load camera list",
	NoticeStreamError: "Camera stream unavailable",
}

func newNotice(kind NoticeKind) Notice {
	return Notice{Kind: kind, Message: noticeText[kind]}
}

// Surface displays notices next to the stream element.
type Surface interface {
	ShowNotice(n Notice)
	ClearNotice()
}

// SourceReporter is implemented by surfaces that also show which stream is
// bound. "" means no stream.
type SourceReporter interface {
	ShowSource(src string)
}
