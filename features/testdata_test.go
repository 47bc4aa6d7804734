package features

// sampleRecord returns a fresh copy of a valid record each call
func sampleRecord() Record {
	return Record{
		"gender":            "Female",
		"senior_citizen":    0,
		"partner":           "Yes",
		"dependents":        "No",
		"tenure":            5,
		"phone_service":     "Yes",
		"multiple_lines":    "No",
		"internet_service":  "DSL",
		"online_security":   "No",
		"online_backup":     "Yes",
		"device_protection": "No",
		"tech_support":      "No",
		"streaming_tv":      "No",
		"streaming_movies":  "No",
		"contract":          "Month-to-month",
		"paperless_billing": "Yes",
		"payment_method":    "Electronic check",
		"monthly_charges":   70.5,
		"total_charges":     350.25,
	}
}
