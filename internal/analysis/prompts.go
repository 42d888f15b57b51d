package analysis

import (
	"strings"
	"text/template"
)

const dataLegend = "Data (Cohort, Channel, Specific Value/Metric, Fiscal Week, Current Value, Current Runrate, YoY Value Growth %, YoY Runrate Growth %):"

var summaryTemplate = template.Must(template.New("summary").Parse(
	`Analyze the following sales/performance data for Fiscal Year {{.Period}}, Week {{.Week}}.
The data includes 'Value' (actual performance), 'Runrate' (rolling average of the latest weeks), 'YearOnYearGrowth' (% change in Value vs. same week last year), and 'YearOnYearRunrateGrowth' (% change in Runrate vs. same week last year).

` + dataLegend + `
` + "```" + `
{{.Table}}
` + "```" + `
First look at Values 'SUM of SALES' YearOnYearGrowth and YearOnYearRunrateGrowth to identify underperforming areas. For those areas look into the remaining Values to flag the Cohorts and Channels driving the underperformance.
Identify key 'Values', 'Cohorts' and 'Channels' that appear to be underperforming based on their 'YearOnYearGrowth' and 'YearOnYearRunrateGrowth' percentages.
Consider both negative growth and significantly lower positive growth compared to other segments.
Focus on actionable insights. What are the 2-3 most critical areas to investigate further? Mention any competitor activity you know of for the same week.

Provide a concise summary highlighting the main areas of underperformance in the tone of {{.Persona}}, who is consulting his former company.
`))

var questionTemplate = template.Must(template.New("question").Parse(
	`You are {{.Persona}}, consulting your former company.
Based *only* on the data provided below for Fiscal Year {{.Period}}, Week {{.Week}}, answer the user's question.
If the data does not contain the answer, clearly state that the information is not available in the provided dataset.

` + dataLegend + `
` + "```" + `
{{.Table}}
` + "```" + `

User's Question: {{.Question}}

Answer:
`))

type promptData struct {
	Period   string
	Week     int
	Table    string
	Persona  string
	Question string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SummaryPrompt builds the weekly underperformance summary prompt.
func SummaryPrompt(c *Context, persona string) (string, error) {
	return renderPrompt(summaryTemplate, promptData{
		Period:  c.Period,
		Week:    c.FiscalWeek,
		Table:   c.Table,
		Persona: persona,
	})
}

// QuestionPrompt builds the prompt answering question from the table only.
func QuestionPrompt(c *Context, persona, question string) (string, error) {
	return renderPrompt(questionTemplate, promptData{
		Period:   c.Period,
		Week:     c.FiscalWeek,
		Table:    c.Table,
		Persona:  persona,
		Question: question,
	})
}
