package telephony

import (
	"encoding/xml"
	"strings"
)

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Pause   *twimlPause   `xml:"Pause,omitempty"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlPause struct {
	Length int `xml:"length,attr"`
}

// StreamTwiML renders the answer document that bridges the call's audio to
// the conversation engine's websocket, with a trailing pause so Twilio
// keeps the call leg open while the stream runs.
func StreamTwiML(streamURL string) string {
	doc := twimlResponse{
		Connect: &twimlConnect{Stream: twimlStream{URL: streamURL}},
		Pause:   &twimlPause{Length: 600},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		// Marshal of a static struct cannot fail in practice.
		return xml.Header + "<Response/>"
	}
	var b strings.Builder
	b.WriteString(xml.Header)
	b.Write(out)
	return b.String()
}
