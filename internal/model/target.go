package model

// TargetFile identifies one of the fixed ACG output file kinds.
type TargetFile string

const (
	TargetPatientData     TargetFile = "patient_data"
	TargetMedicalServices TargetFile = "medical_services"
	TargetPharmacyData    TargetFile = "pharmacy_data"
)

// AllTargets lists the ACG output file kinds in canonical emission order.
var AllTargets = []TargetFile{
	TargetPatientData,
	TargetMedicalServices,
	TargetPharmacyData,
}

// TargetByName returns the TargetFile for the given name, or ok=false.
func TargetByName(name string) (TargetFile, bool) {
	for _, t := range AllTargets {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// MultiSource reports whether rows for this target may be contributed by
// several distinct input types, grouped by SourceLabel.
func (t TargetFile) MultiSource() bool {
	return t == TargetMedicalServices || t == TargetPharmacyData
}
