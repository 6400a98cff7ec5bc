package export

// RootCollectionURI is the database's root collection. It is never
// wrapped in its own archive scope — the archive root already represents
// it.
const RootCollectionURI = "/db"

// LostAndFoundURI is the synthetic collection orphaned documents are
// rescued into.
const LostAndFoundURI = RootCollectionURI + "/__lost_and_found__"

// tempCollectionURI is skipped when iterating child collections, the same
// way the reference database excludes its own working storage from a
// backup.
const tempCollectionURI = RootCollectionURI + "/system/temp"

// ContentsFilename is the manifest entry name written into every
// collection scope. Exported so backupdir can locate the same entries
// when parsing a predecessor archive.
const ContentsFilename = "__contents__.xml"

// Reserved document filenames that never get a manifest resource entry:
// the manifest file itself, and the lost-and-found collection when it
// shows up as a stray child document entry of the root.
const (
	contentsFilename      = ContentsFilename
	lostAndFoundEntryName = "__lost_and_found__"
)

// manifestVersion is the collection manifest schema version written into
// every <collection> element.
const manifestVersion = 1
