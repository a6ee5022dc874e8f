package roster

// Document is one shared document known to the session.
type Document struct {
	// Name is the document title as announced by the server.
	Name string

	// Creator is the obby id of the creating user. Together with Index
	// it forms the document's unique key.
	Creator uint32

	// Index is the creator's local sequence number for this document.
	Index uint32

	// Subscribers is the number of users with the document open.
	Subscribers uint32

	// Encoding is the text encoding label. Empty for documents announced
	// via a creation notice rather than the sync catalog.
	Encoding string
}

// Documents is the ordered, capacity-bounded document catalog.
type Documents struct {
	list []*Document
}

func NewDocuments() *Documents {
	return &Documents{list: make([]*Document, 0, 16)}
}

// Put inserts a document, or updates the existing record in place when
// one with the same (creator, index) key is already present. A record
// re-announced under its key must never become a second entry.
func (d *Documents) Put(doc *Document) error {
	for _, have := range d.list {
		if have.Creator == doc.Creator && have.Index == doc.Index {
			have.Name = doc.Name
			have.Subscribers = doc.Subscribers
			if doc.Encoding != "" {
				have.Encoding = doc.Encoding
			}
			return nil
		}
	}

	if len(d.list) >= MaxDocuments {
		return ErrCatalogFull
	}

	d.list = append(d.list, doc)
	return nil
}

func (d *Documents) Len() int {
	return len(d.list)
}

// ByKey finds a document by its (creator id, local index) key.
func (d *Documents) ByKey(creator, index uint32) *Document {
	for _, doc := range d.list {
		if doc.Creator == creator && doc.Index == index {
			return doc
		}
	}

	return nil
}

// ByName finds a document by title. Names are not guaranteed unique;
// the first match in insertion order wins.
func (d *Documents) ByName(name string) *Document {
	for _, doc := range d.list {
		if doc.Name == name {
			return doc
		}
	}

	return nil
}

// Reset discards every record, keeping the catalog usable.
func (d *Documents) Reset() {
	d.list = d.list[:0]
}

// Snapshot returns a read-only copy of the catalog in insertion order.
func (d *Documents) Snapshot() []Document {
	out := make([]Document, len(d.list))
	for i, doc := range d.list {
		out[i] = *doc
	}

	return out
}
