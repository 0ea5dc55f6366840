package cue

// Default returns the built-in trigger table used when the config has none.
func Default() Table {
	return Table{
		{
			Phrase: "what type of leave",
			Cue: Cue{
				Kind:    KindChoiceList,
				Title:   "Leave type",
				Options: []string{"Sick Leave", "Casual Leave", "Earned Leave", "Work From Home"},
			},
		},
		{
			Phrase: "what category does this expense",
			Cue: Cue{
				Kind:           KindChoiceList,
				Title:          "Expense category",
				Options:        []string{"Travel", "Meals", "Office Supplies", "Other"},
				EscapeOption:   "Other",
				EscapeBehavior: EscapeFreeText,
				Prompt:         "Please type the expense category...",
			},
		},
		{
			Phrase: "select the date",
			Cue:    Cue{Kind: KindDateRange, Title: "Pick a date or a range"},
		},
		{
			Phrase: "upload a photo or pdf",
			Cue:    Cue{Kind: KindFileUpload, Title: "Upload receipt"},
		},
	}
}
