package domain

// Roster is the ordered set of participants in one conference session.
// Insertion order is join order and is semantically meaningful: it is the
// render order used for stream-visibility ranking. IDs are unique; re-adding
// an existing ID updates the record in place and never duplicates it.
//
// Roster is pure data. It is not safe for concurrent use; the controller
// confines all mutation to its own critical section.
type Roster struct {
	order []ParticipantID
	byID  map[ParticipantID]*Participant
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[ParticipantID]*Participant)}
}

func (r *Roster) Len() int { return len(r.order) }

// Add appends p in join order. If the ID is already present the existing
// record keeps its position and only picks up a non-empty display name.
// Reports whether a new entry was created.
func (r *Roster) Add(p *Participant) bool {
	if existing, ok := r.byID[p.ID]; ok {
		if p.DisplayName != "" {
			existing.DisplayName = p.DisplayName
		}
		return false
	}
	cp := *p
	r.byID[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	return true
}

// Remove deletes the participant and closes the order gap.
func (r *Roster) Remove(id ParticipantID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the participant record.
func (r *Roster) Get(id ParticipantID) (Participant, bool) {
	p, ok := r.byID[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// IndexOf returns the 0-based join-order position.
func (r *Roster) IndexOf(id ParticipantID) (int, bool) {
	for i, pid := range r.order {
		if pid == id {
			return i, true
		}
	}
	return 0, false
}

// Update applies fn to the named record in place. Reports whether it existed.
func (r *Roster) Update(id ParticipantID, fn func(*Participant)) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	fn(p)
	return true
}

// Snapshot returns participant copies in join order.
func (r *Roster) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Clear drops every participant.
func (r *Roster) Clear() {
	r.order = nil
	r.byID = make(map[ParticipantID]*Participant)
}
