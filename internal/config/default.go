package config

import "github.com/mhaslett/acgbridge/internal/model"

// DefaultRegistry returns the built-in registry for EMIS Web extracts feeding
// the Johns Hopkins ACG system. Used when no --registry file is supplied.
func DefaultRegistry() *Registry {
	return &Registry{
		MergeKey:     "PatientID",
		PatientInput: "Patient_Details",
		Inputs: []InputDefinition{
			{
				Key: "Patient_Details",
				Columns: []string{
					"PatientID", "NHSNumber", "Age", "GenderCode", "Postcode",
					"Ethnicity", "LSOA", "PracticeCode",
				},
			},
			{
				Key: "Care_History",
				Columns: []string{
					"PatientID", "Code", "CodeTerm", "EffectiveDate", "Value", "Unit",
				},
			},
			{
				Key: "Medication_History",
				Columns: []string{
					"PatientID", "DrugCode", "DrugName", "IssueDate", "Quantity", "Dosage",
				},
			},
			{
				Key: "Long_Term_Conditions",
				Columns: []string{
					"PatientID", "ConditionCode", "ConditionName", "OnsetDate", "ResolvedDate",
				},
			},
		},
		Outputs: []OutputSpec{
			{
				Target:   model.TargetPatientData,
				Filename: "ACG_PatientData_{timestamp}.csv",
				Columns:  []string{"patient_id", "age", "sex"},
			},
			{
				Target:   model.TargetMedicalServices,
				Filename: "ACG_MedicalServices_{timestamp}.csv",
				Columns:  []string{"patient_id", "dx_cd_1", "dx_version_1", "service_date", "cost", "count"},
			},
			{
				Target:   model.TargetPharmacyData,
				Filename: "ACG_PharmacyData_{timestamp}.csv",
				Columns:  []string{"patient_id", "rx_cd", "rx_code_type", "rx_fill_date"},
			},
		},
	}
}
