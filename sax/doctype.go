package sax

// Well-known HTML 4.01 doctype identifiers. The Transitional pair is the
// default used when doctype insertion is enabled.
const (
	HTML401StrictPubID = "-//W3C//DTD HTML 4.01//EN"
	HTML401StrictSysID = "http://www.w3.org/TR/html4/strict.dtd"

	HTML401TransitionalPubID = "-//W3C//DTD HTML 4.01 Transitional//EN"
	HTML401TransitionalSysID = "http://www.w3.org/TR/html4/loose.dtd"

	HTML401FramesetPubID = "-//W3C//DTD HTML 4.01 Frameset//EN"
	HTML401FramesetSysID = "http://www.w3.org/TR/html4/frameset.dtd"
)
