package genai

import (
	"strings"
)

// SystemPrompt instructs every provider.
const SystemPrompt = `Eres AulaBot, el asistente virtual de una institución educativa.
Responde en español, de forma breve y amable (máximo 4 oraciones).
Si se te da información de referencia, úsala como fuente principal y no inventes datos que la contradigan.
Si no conoces la respuesta con seguridad, dilo claramente y sugiere acudir a servicios escolares.
No uses formato Markdown complejo; puedes usar viñetas simples.`

// rephrasePrefix marks requests that only ask to restate a known answer.
const rephrasePrefix = "Reformula la siguiente respuesta de forma natural, sin cambiar los datos:\n"

// RephraseRequest asks the model to restate answer for question.
func RephraseRequest(question, answer string) Request {
	return Request{Question: question, Context: rephrasePrefix + answer}
}

// userPrompt renders the final user message: reference snippets first,
// then the question.
func userPrompt(req Request) string {
	question := strings.TrimSpace(req.Question)
	ctx := strings.TrimSpace(req.Context)
	if ctx == "" {
		return question
	}

	var b strings.Builder
	b.WriteString("Información de referencia:\n")
	b.WriteString(ctx)
	b.WriteString("\n\nPregunta del usuario: ")
	b.WriteString(question)
	return b.String()
}
