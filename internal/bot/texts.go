package bot

// Reply texts.
const (
	msgReset    = "🔄 Reiniciado. ¿En qué puedo ayudarte?"
	msgGreeting = "¡Hola! 👋 Soy AulaBot. Puedes enseñarme cosas nuevas escribiendo 'aprender'."
	msgAskName  = "¿Cómo te llamas?"
	msgFallback = "No sé la respuesta a eso. 😅\n\nSi tú la sabes, escribe **'aprender'** para enseñármela."

	msgLearnStart      = "🎓 ¡Modo Aprendizaje Activado! \n¿Qué pregunta quieres enseñarme a responder?"
	msgLearnQuestionFm = "Entendido. Cuando alguien me pregunte: '%s'... \n¿Qué debo responder? ✍️"
	msgLearnSaved      = "¡Listo! He aprendido algo nuevo. 🧠✨ \nIntenta preguntarme eso de nuevo."
	msgLearnFailed     = "No pude guardar lo que me enseñaste. 😓 Inténtalo más tarde."

	msgNiceToMeetFm = "¡Mucho gusto, %s! 😊 ¿En qué puedo ayudarte?"
	msgGreetNameFm  = "¡Hola de nuevo, %s! 👋 ¿En qué puedo ayudarte?"

	msgBrowseFm     = "Viendo materias de %s. Escribe 'todas' o el semestre."
	msgWhichMajorFm = "¿De qué carrera quieres ver las materias?\n\n%s"
)

const msgHelp = `🤖 Esto es lo que puedo hacer:
• Carreras: escribe "carreras" para ver la oferta educativa.
• Materias: "materias de sistemas", luego "todas" o un semestre.
• Jefes de división: "jefe de división de industrial".
• Costos, ubicación, trámites, becas y más.
• Aprender: escribe "aprender" para enseñarme una respuesta nueva.
• Reiniciar: escribe "menu" o "cancelar" en cualquier momento.`

// WelcomeText greets users who add the bot or invite it to a group.
const WelcomeText = msgGreeting + "\n\n" + msgHelp
