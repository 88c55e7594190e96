package services

import "fmt"

const extractionPreviewLimit = 1000

func buildStructuredInsightPrompt(statsJSON string) string {
	return fmt.Sprintf(`
You are an analytics engine. Analyze this stats JSON and output structured insights in JSON format.

The output should be an object with these exact keys:
- insights: array of insight objects
- summary: string summary
- metrics: key metrics object

Each insight object should have:
- title: string
- finding: string
- impact: string
- recommendation: string
- confidence: number (0-100)

Stats data: %s

Return valid JSON only, no markdown or explanations.
`, statsJSON)
}

func buildExtractionPrompt(csvData, fileName string) string {
	preview := csvData
	if len(preview) > extractionPreviewLimit {
		preview = preview[:extractionPreviewLimit]
	}
	return fmt.Sprintf(`
Analyze this CSV data and extract key insights:

File: %s
Data preview: %s...

Provide analysis in JSON format with:
- data_quality: assessment of data completeness
- key_patterns: major trends discovered
- recommendations: actionable next steps
- data_summary: basic statistics

Return valid JSON only.
`, fileName, preview)
}

func buildChatPrompt(message string) string {
	return fmt.Sprintf("You are a direct business analyst. Give short, actionable answers. No fluff.\n\nUser: %s\nAssistant: ", message)
}
