package assemble

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/model"
	"github.com/mhaslett/acgbridge/internal/transform"
)

func testRegistry() *config.Registry {
	return &config.Registry{
		MergeKey:     "PatientID",
		PatientInput: "Patient_Details",
		Inputs: []config.InputDefinition{
			{Key: "Patient_Details", Columns: []string{"PatientID", "DOB", "Sex"}},
			{Key: "Care_History", Columns: []string{"PatientID", "Code", "EffectiveDate"}},
			{Key: "Long_Term_Conditions", Columns: []string{"PatientID", "ConditionCode", "OnsetDate"}},
		},
	}
}

func patientTable() *model.Table {
	return &model.Table{
		Key: "Patient_Details",
		Rows: []model.Row{
			{"PatientID": "1", "DOB": "2000-01-01", "Sex": "M"},
			{"PatientID": "2", "DOB": "1985-03-12", "Sex": "F"},
		},
	}
}

func TestSingleSourceScenario(t *testing.T) {
	funcs := transform.NewRegistry()
	funcs.RegisterCell("transform_sex", func(v string) (string, error) {
		switch v {
		case "M":
			return "Male", nil
		case "F":
			return "Female", nil
		}
		return "Unknown", nil
	})

	rules := []model.MappingRule{
		{InputKey: "Patient_Details", InputColumn: "PatientID", Target: model.TargetPatientData, TargetColumn: "patient_id"},
		{InputKey: "Patient_Details", InputColumn: "Sex", Target: model.TargetPatientData, TargetColumn: "Gender", Transform: "transform_sex"},
	}
	tables := map[string]*model.Table{"Patient_Details": patientTable()}

	out, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs, rules, tables)
	require.NoError(t, err)

	rows := out[model.TargetPatientData]
	require.Len(t, rows, 2)
	assert.Equal(t, "Male", rows[0].Cells["Gender"])
	assert.Equal(t, "1", rows[0].Cells["patient_id"])
	assert.Equal(t, "1", rows[0].MergeKey)
	assert.Equal(t, "Female", rows[1].Cells["Gender"])
}

func TestRowOrderPreserved(t *testing.T) {
	funcs := transform.NewRegistry()
	table := &model.Table{Key: "Patient_Details"}
	for i := 0; i < 20; i++ {
		table.Rows = append(table.Rows, model.Row{"PatientID": fmt.Sprint(i), "DOB": "", "Sex": ""})
	}
	rules := []model.MappingRule{
		{InputKey: "Patient_Details", InputColumn: "PatientID", Target: model.TargetPatientData, TargetColumn: "patient_id"},
	}

	out, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs,
		rules, map[string]*model.Table{"Patient_Details": table})
	require.NoError(t, err)

	rows := out[model.TargetPatientData]
	require.Len(t, rows, 20)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprint(i), row.Cells["patient_id"], "row %d out of order", i)
	}
}

func TestGeneratorRule(t *testing.T) {
	funcs := transform.NewRegistry()
	funcs.RegisterGenerator("set_zero_cost", func() (string, error) { return "0", nil })

	rules := []model.MappingRule{
		{InputKey: "Patient_Details", InputColumn: "PatientID", Target: model.TargetPatientData, TargetColumn: "patient_id"},
		{InputKey: "Patient_Details", InputColumn: "", Target: model.TargetPatientData, TargetColumn: "cost", Transform: "set_zero_cost"},
	}

	out, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs,
		rules, map[string]*model.Table{"Patient_Details": patientTable()})
	require.NoError(t, err)

	for _, row := range out[model.TargetPatientData] {
		assert.Equal(t, "0", row.Cells["cost"])
	}
}

func TestLabelBlocksStackNotJoin(t *testing.T) {
	funcs := transform.NewRegistry()

	care := &model.Table{
		Key: "Care_History",
		Rows: []model.Row{
			{"PatientID": "1", "Code": "G30..", "EffectiveDate": "2020-01-01"},
			{"PatientID": "1", "Code": "H54..", "EffectiveDate": "2021-05-10"},
			{"PatientID": "2", "Code": "XE0Uc", "EffectiveDate": "2022-03-15"},
		},
	}
	ltc := &model.Table{
		Key: "Long_Term_Conditions",
		Rows: []model.Row{
			{"PatientID": "1", "ConditionCode": "LTC01", "OnsetDate": "2019-01-01"},
			{"PatientID": "2", "ConditionCode": "LTC02", "OnsetDate": "2018-07-20"},
		},
	}

	rules := []model.MappingRule{
		{InputKey: "Care_History", InputColumn: "PatientID", Target: model.TargetMedicalServices, TargetColumn: "patient_id", SourceLabel: "Care"},
		{InputKey: "Care_History", InputColumn: "Code", Target: model.TargetMedicalServices, TargetColumn: "dx_cd_1", SourceLabel: "Care"},
		{InputKey: "Care_History", InputColumn: "EffectiveDate", Target: model.TargetMedicalServices, TargetColumn: "service_date", SourceLabel: "Care"},
		{InputKey: "Long_Term_Conditions", InputColumn: "PatientID", Target: model.TargetMedicalServices, TargetColumn: "patient_id", SourceLabel: "LTC"},
		{InputKey: "Long_Term_Conditions", InputColumn: "ConditionCode", Target: model.TargetMedicalServices, TargetColumn: "dx_cd_1", SourceLabel: "LTC"},
	}

	out, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs, rules,
		map[string]*model.Table{"Care_History": care, "Long_Term_Conditions": ltc})
	require.NoError(t, err)

	rows := out[model.TargetMedicalServices]
	require.Len(t, rows, 5)

	// First block: the three Care rows in source order.
	for i, want := range []string{"G30..", "H54..", "XE0Uc"} {
		assert.Equal(t, "Care", rows[i].Label)
		assert.Equal(t, want, rows[i].Cells["dx_cd_1"])
	}
	// Second block: the two LTC rows, with no column values bleeding over
	// from the Care rules.
	for i, want := range []string{"LTC01", "LTC02"} {
		row := rows[3+i]
		assert.Equal(t, "LTC", row.Label)
		assert.Equal(t, want, row.Cells["dx_cd_1"])
		_, hasCareColumn := row.Cells["service_date"]
		assert.False(t, hasCareColumn, "LTC rows must not carry Care-only cells")
	}
}

func TestLabelOrderFollowsRuleSequence(t *testing.T) {
	funcs := transform.NewRegistry()
	care := &model.Table{Key: "Care_History", Rows: []model.Row{{"PatientID": "1", "Code": "A", "EffectiveDate": ""}}}
	ltc := &model.Table{Key: "Long_Term_Conditions", Rows: []model.Row{{"PatientID": "1", "ConditionCode": "B", "OnsetDate": ""}}}

	// LTC rules appear first, so its block must come first.
	rules := []model.MappingRule{
		{InputKey: "Long_Term_Conditions", InputColumn: "ConditionCode", Target: model.TargetMedicalServices, TargetColumn: "dx_cd_1", SourceLabel: "LTC"},
		{InputKey: "Care_History", InputColumn: "Code", Target: model.TargetMedicalServices, TargetColumn: "dx_cd_1", SourceLabel: "Care"},
	}

	out, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs, rules,
		map[string]*model.Table{"Care_History": care, "Long_Term_Conditions": ltc})
	require.NoError(t, err)

	rows := out[model.TargetMedicalServices]
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Cells["dx_cd_1"])
	assert.Equal(t, "A", rows[1].Cells["dx_cd_1"])
}

func TestTransformationErrorLocator(t *testing.T) {
	funcs := transform.NewRegistry()
	funcs.RegisterCell("strict_date", func(v string) (string, error) {
		if v == "bad" {
			return "", errors.New("unparseable date")
		}
		return v, nil
	})

	care := &model.Table{
		Key: "Care_History",
		Rows: []model.Row{
			{"PatientID": "1", "Code": "A", "EffectiveDate": "2020-01-01"},
			{"PatientID": "2", "Code": "B", "EffectiveDate": "bad"},
		},
	}
	rules := []model.MappingRule{
		{InputKey: "Care_History", InputColumn: "EffectiveDate", Target: model.TargetMedicalServices, TargetColumn: "service_date", Transform: "strict_date", SourceLabel: "Care"},
	}

	_, err := Run(context.Background(), zerolog.Nop(), testRegistry(), funcs, rules,
		map[string]*model.Table{"Care_History": care})
	require.Error(t, err)

	var te *TransformationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, model.TargetMedicalServices, te.Target)
	assert.Equal(t, "Care", te.Label)
	assert.Equal(t, 1, te.Row)
	assert.Equal(t, "EffectiveDate", te.Column)
	assert.Equal(t, "strict_date", te.Function)
	assert.Contains(t, te.Error(), `label "Care" row 1`)
}

func TestCancelledContextStopsAssembly(t *testing.T) {
	funcs := transform.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rules := []model.MappingRule{
		{InputKey: "Patient_Details", InputColumn: "PatientID", Target: model.TargetPatientData, TargetColumn: "patient_id"},
	}
	_, err := Run(ctx, zerolog.Nop(), testRegistry(), funcs, rules,
		map[string]*model.Table{"Patient_Details": patientTable()})
	require.ErrorIs(t, err, context.Canceled)
}
