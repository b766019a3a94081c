package scheduler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type fingerprintInput struct {
	SessionMinutes int         `json:"sessionMinutes"`
	Slots          []TimeSlot  `json:"slots"`
	Faculty        []Faculty   `json:"faculty"`
	Subjects       []Subject   `json:"subjects"`
	Classrooms     []Classroom `json:"classrooms"`
	NodeBudget     int         `json:"nodeBudget"`
	RepairBudget   int         `json:"repairBudget"`
	Workers        int         `json:"workers"`
	Constraints    []string    `json:"constraints"`
}

// Fingerprint identifies the snapshot together with every option that affects the solver's
// output. Two calls with equal fingerprints produce identical results.
func (s *Snapshot) Fingerprint(opts Options) string {
	opts = opts.withDefaults()
	subjects := make([]Subject, len(s.subjects))
	for i, subj := range s.subjects {
		subj.QualifiedFaculty = s.QualifiedFaculty(subj.ID)
		subj.Expertise = ""
		subjects[i] = subj
	}
	constraints := make([]string, 0, len(opts.Constraints.hard)+len(opts.Constraints.soft))
	for _, c := range opts.Constraints.Constraints() {
		constraints = append(constraints, fmt.Sprintf("%s=%+v", c.ID(), c))
	}
	payload, err := json.Marshal(fingerprintInput{
		SessionMinutes: s.sessionMinutes,
		Slots:          s.grid.slots,
		Faculty:        s.faculty,
		Subjects:       subjects,
		Classrooms:     s.classrooms,
		NodeBudget:     opts.NodeBudget,
		RepairBudget:   opts.RepairBudget,
		Workers:        opts.Workers,
		Constraints:    constraints,
	})
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
