package phrases

import "time"

const (
	shortBackchannel  = 600 * time.Millisecond
	mediumBackchannel = 700 * time.Millisecond
	longBackchannel   = 800 * time.Millisecond
)

// tables is the immutable phrase library. It is only ever read through For,
// which hands out normalized copies.
var tables = map[Language]Table{
	English:    englishTable,
	Spanish:    spanishTable,
	French:     frenchTable,
	German:     germanTable,
	Portuguese: portugueseTable,
	Arabic:     arabicTable,
	Chinese:    chineseTable,
	Japanese:   japaneseTable,
	Korean:     koreanTable,
	Russian:    russianTable,
	Hindi:      hindiTable,
	Turkish:    turkishTable,
}

var englishTable = Table{
	Language: English,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"uh huh", "uh-huh", "mm hmm", "mm-hmm", "mhm", "mm", "hmm", "hm"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"yeah", "yes", "yep", "yup", "ok", "okay", "right", "sure", "alright", "all right", "got it", "i see", "cool", "true", "exactly", "indeed", "makes sense"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"oh", "ah", "oh okay", "oh i see", "wow", "nice", "interesting"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"wait", "hold on", "hang on", "one second", "one moment", "just a moment", "just a sec"}},
		{Phrases: []string{"excuse me", "sorry", "actually", "um actually", "but", "well", "if i could", "quick question"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"stop", "no stop", "shut up", "be quiet", "enough", "thats enough", "no no no"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"let me talk", "let me speak", "listen to me", "listen", "i need to say something", "can i say something", "let me finish"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"change the subject", "different question", "new topic", "something else", "forget that"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"stop talking", "stop speaking", "cancel", "cancel that", "never mind", "nevermind", "be quiet please"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"pause", "pause please", "pause for a moment"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"continue", "go on", "keep going", "resume", "carry on"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"repeat that", "say that again", "repeat please", "can you repeat", "could you repeat"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"louder", "speak up", "volume up", "turn it up"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"quieter", "volume down", "turn it down", "lower your voice"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"slower", "slow down", "speak slower"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"faster", "speed up", "speak faster"}, CommandType: CommandFaster, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"skip", "skip that", "skip this", "next one"}, CommandType: CommandSkip, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"go back", "previous one"}, CommandType: CommandBack, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections: []string{
		"no i said", "thats not what i said", "thats not what i meant", "not what i meant",
		"thats wrong", "that is wrong", "thats incorrect", "that is not right", "i didnt say",
		"you misunderstood", "i meant", "not quite", "no thats not", "wrong",
	},
	Clarifications: []string{
		"what do you mean", "what does that mean", "huh", "pardon", "sorry what", "come again",
		"i dont understand", "i dont get it", "can you explain", "could you clarify",
		"what was that", "what did you say", "meaning what",
	},
	Acknowledgments: []string{"Go ahead.", "Yes?", "Sure, I'm listening.", "Of course.", "Okay, what is it?"},
}

var spanishTable = Table{
	Language: Spanish,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"ajá", "aja", "mhm", "mm", "ah"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"sí", "si", "vale", "claro", "ya", "bueno", "de acuerdo", "entiendo", "exacto", "cierto", "okey", "perfecto"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"ah ya", "ah vale", "qué bien", "vaya"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"espera", "espera un momento", "un momento", "un segundo"}},
		{Phrases: []string{"perdona", "perdón", "disculpa", "pero", "en realidad", "una pregunta"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"para", "basta", "cállate", "ya basta", "no no no"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"déjame hablar", "escúchame", "tengo que decir algo"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"cambiemos de tema", "otra pregunta", "otra cosa"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"deja de hablar", "para de hablar", "cancela", "cancelar", "olvídalo"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"pausa", "haz una pausa"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"continúa", "sigue", "adelante"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"repite", "repítelo", "puedes repetir"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"más alto", "sube el volumen"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"más bajo", "baja el volumen"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"más despacio", "habla más despacio"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections: []string{"no dije", "eso no es lo que dije", "eso está mal", "no es correcto", "me refería", "no exactamente", "te equivocas"},
	Clarifications: []string{"qué quieres decir", "qué significa", "cómo", "perdón qué", "no entiendo", "puedes explicar", "qué dijiste"},
	Acknowledgments: []string{"Adelante.", "¿Sí?", "Claro, te escucho.", "Por supuesto."},
}

var frenchTable = Table{
	Language: French,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"mmh", "mm", "hum", "ah"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"oui", "ouais", "d'accord", "ok", "okay", "bien sûr", "voilà", "je vois", "exactement", "tout à fait", "c'est ça", "entendu"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"ah bon", "ah oui", "ah d'accord", "super"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"attends", "attendez", "un instant", "une seconde", "un moment"}},
		{Phrases: []string{"pardon", "excusez-moi", "mais", "en fait", "une question"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"arrête", "arrêtez", "stop", "tais-toi", "ça suffit", "non non non"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"laisse-moi parler", "écoute-moi", "j'ai quelque chose à dire"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"changeons de sujet", "autre question", "autre chose"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"arrête de parler", "arrêtez de parler", "annule", "annuler", "laisse tomber"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"pause", "fais une pause"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"continue", "continuez", "vas-y"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"répète", "répétez", "tu peux répéter"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"plus fort", "monte le son"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"moins fort", "baisse le son"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"plus lentement", "parle plus lentement"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections: []string{"je n'ai pas dit", "ce n'est pas ce que j'ai dit", "c'est faux", "ce n'est pas correct", "je voulais dire", "pas exactement", "tu te trompes"},
	Clarifications: []string{"qu'est-ce que tu veux dire", "ça veut dire quoi", "comment", "pardon quoi", "je ne comprends pas", "tu peux expliquer", "quoi"},
	Acknowledgments: []string{"Allez-y.", "Oui ?", "Bien sûr, je vous écoute.", "Je vous écoute."},
}

var germanTable = Table{
	Language: German,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"mhm", "mm", "hm", "aha", "ah"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"ja", "genau", "okay", "ok", "klar", "stimmt", "richtig", "verstehe", "ich verstehe", "gut", "alles klar", "sicher"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"ach so", "ah ja", "oh", "interessant"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"warte", "moment", "einen moment", "eine sekunde", "kurz"}},
		{Phrases: []string{"entschuldigung", "sorry", "aber", "eigentlich", "eine frage"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"stopp", "stop", "halt", "hör auf", "ruhe", "es reicht", "nein nein nein"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"lass mich reden", "hör mir zu", "ich muss etwas sagen"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"anderes thema", "andere frage", "etwas anderes"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"hör auf zu reden", "sei still", "abbrechen", "vergiss es"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"pause", "mach eine pause"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"weiter", "mach weiter", "fortfahren"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"wiederhole", "wiederhol das", "noch einmal", "nochmal"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"lauter", "mach lauter"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"leiser", "mach leiser"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"langsamer", "sprich langsamer"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections: []string{"das habe ich nicht gesagt", "das ist falsch", "das stimmt nicht", "ich meinte", "nicht ganz", "du hast mich falsch verstanden"},
	Clarifications: []string{"was meinst du", "was bedeutet das", "wie bitte", "bitte was", "ich verstehe nicht", "kannst du das erklären", "was"},
	Acknowledgments: []string{"Bitte sprechen Sie.", "Ja?", "Klar, ich höre zu.", "Natürlich."},
}

var portugueseTable = Table{
	Language: Portuguese,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"aham", "uhum", "mhm", "hum"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"sim", "tá", "ta", "certo", "claro", "ok", "beleza", "entendi", "exato", "isso", "tudo bem", "pois é"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"ah tá", "ah sim", "nossa", "legal"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"espera", "peraí", "um momento", "um segundo"}},
		{Phrases: []string{"desculpa", "com licença", "mas", "na verdade", "uma pergunta"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"para", "pare", "chega", "cala a boca", "não não não"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"me deixa falar", "me escuta", "preciso dizer uma coisa"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"vamos mudar de assunto", "outra pergunta", "outra coisa"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"para de falar", "pare de falar", "cancela", "cancelar", "esquece"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"pausa", "faz uma pausa"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"continua", "continue", "pode seguir"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"repete", "pode repetir", "repita"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"mais alto", "aumenta o volume"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"mais baixo", "abaixa o volume"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"mais devagar", "fala mais devagar"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections: []string{"eu não disse", "não foi isso que eu disse", "isso está errado", "não está certo", "eu quis dizer", "não exatamente"},
	Clarifications: []string{"o que você quer dizer", "o que significa", "como assim", "desculpa o quê", "não entendi", "pode explicar", "o quê"},
	Acknowledgments: []string{"Pode falar.", "Sim?", "Claro, estou ouvindo.", "Com certeza."},
}
