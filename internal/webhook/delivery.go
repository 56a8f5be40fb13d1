package webhook

// ObjectPage is the top-level object type of leadgen deliveries. Deliveries
// for any other object type are acknowledged and ignored.
const ObjectPage = "page"

// FieldLeadgen is the change field carrying a lead event.
const FieldLeadgen = "leadgen"

// Delivery is the provider-defined webhook POST body.
type Delivery struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one page-scoped batch of changes within a delivery.
type Entry struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Changes []Change `json:"changes"`
}

// Change is a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the identifiers of a captured lead.
type ChangeValue struct {
	PageID      string `json:"page_id"`
	FormID      string `json:"form_id"`
	LeadgenID   string `json:"leadgen_id"`
	CreatedTime int64  `json:"created_time"`
}

// LeadEvent is one flattened leadgen change, processed independently of its
// siblings in the same delivery.
type LeadEvent struct {
	PageID string
	FormID string
	LeadID string
}

// LeadEvents flattens entry[].changes[] into the leadgen events the pipeline
// acts on, preserving array order.
func (d *Delivery) LeadEvents() []LeadEvent {
	var events []LeadEvent
	for _, entry := range d.Entry {
		for _, change := range entry.Changes {
			if change.Field != FieldLeadgen {
				continue
			}
			events = append(events, LeadEvent{
				PageID: change.Value.PageID,
				FormID: change.Value.FormID,
				LeadID: change.Value.LeadgenID,
			})
		}
	}
	return events
}
