package models

import "testing"

func TestCreateModelRequestValidate(t *testing.T) {
	valid := CreateModelRequest{Name: "sales", Frequency: "D", Periods: 30}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name string
		req  CreateModelRequest
	}{
		{"missing name", CreateModelRequest{Frequency: "D", Periods: 30}},
		{"zero periods", CreateModelRequest{Name: "sales", Frequency: "D"}},
		{"negative periods", CreateModelRequest{Name: "sales", Frequency: "D", Periods: -1}},
		{"unknown frequency", CreateModelRequest{Name: "sales", Frequency: "H", Periods: 30}},
		{"schedule without cron", CreateModelRequest{Name: "sales", Frequency: "D", Periods: 30, ScheduleEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateModelRequestValidateEmptyFrequency(t *testing.T) {
	req := CreateModelRequest{Name: "sales", Periods: 7}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected empty frequency to be accepted, got %v", err)
	}
}
