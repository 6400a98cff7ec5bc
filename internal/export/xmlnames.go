package export

import "time"

// existNamespace is the reserved namespace every manifest element and
// attribute is written in, bound to the empty prefix.
const existNamespace = "http://exist.sourceforge.net/NS/exist"

var (
	collectionQName    = QName{Local: "collection", URI: existNamespace}
	subcollectionQName = QName{Local: "subcollection", URI: existNamespace}
	resourceQName      = QName{Local: "resource", URI: existNamespace}
	deletedQName       = QName{Local: "deleted", URI: existNamespace}
)

// qattr builds an unprefixed, reserved-namespace manifest attribute.
func qattr(local, value string) Attr {
	return Attr{Name: QName{Local: local, URI: existNamespace}, Value: value}
}

// TimestampLayout mirrors the ISO-8601 dateTime format the reference
// database's xs:dateTime serialization produces. Exported so backupdir can
// parse the same "date" property format this package writes.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(TimestampLayout)
}
