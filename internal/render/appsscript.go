package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/generator"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// ErrRender reports a variant that could not be serialized or written.
var ErrRender = errors.New("render failed")

const (
	defaultDescription  = "To AI or not to AI, that is the question"
	defaultConfirmation = "Hvala što ste učestvovali u kvizu! / Thanks for taking the quiz!"

	dontKnowEN = "I don't know"
	dontKnowRS = "Ne znam"
)

// Options configure the rendered quiz script.
type Options struct {
	Name                string
	ResultsSheet        string
	Description         string
	ConfirmationMessage string
	PointsPerQuestion   int
}

// Renderer serializes assembled variants into Google Apps Script artifacts
// that create autograded Forms quizzes.
type Renderer struct {
	opts   Options
	logger zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Renderer {
	if opts.Description == "" {
		opts.Description = defaultDescription
	}
	if opts.ConfirmationMessage == "" {
		opts.ConfirmationMessage = defaultConfirmation
	}
	if opts.PointsPerQuestion <= 0 {
		opts.PointsPerQuestion = 1
	}
	return &Renderer{
		opts:   opts,
		logger: logger.With().Str("component", "renderer").Logger(),
	}
}

// Filename builds the artifact name for one variant:
// "{name} | {ISO-date} | [{lang}] | Variant {ordinal}.gs".
func Filename(name string, date time.Time, lang pool.Language, ordinal int) string {
	return fmt.Sprintf("%s | %s | [%s] | Variant %d.gs", name, date.Format("2006-01-02"), lang, ordinal)
}

// Render produces the complete Apps Script source for one variant.
func (r *Renderer) Render(v generator.Variant) (string, error) {
	questionsJS, err := questionsArray(v.Questions, v.Language)
	if err != nil {
		return "", fmt.Errorf("%w: variant %d [%s]: %v", ErrRender, v.Ordinal, v.Language, err)
	}

	data := scriptData{
		Title:         escapeJS(fmt.Sprintf("%s [%s]", r.opts.Name, v.Language)),
		Name:          escapeJS(r.opts.Name),
		Description:   escapeJS(r.opts.Description),
		Confirmation:  escapeJS(r.opts.ConfirmationMessage),
		ResultsSheet:  r.opts.ResultsSheet,
		Points:        r.opts.PointsPerQuestion,
		QuestionCount: len(v.Questions),
		QuestionsJS:   questionsJS,
	}

	var out strings.Builder
	if err := scriptTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("%w: variant %d [%s]: %v", ErrRender, v.Ordinal, v.Language, err)
	}
	return out.String(), nil
}

// WriteVariant renders v and writes it under outputDir using the filename
// convention. Returns the written path.
func (r *Renderer) WriteVariant(v generator.Variant, outputDir string, date time.Time) (string, error) {
	content, err := r.Render(v)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", ErrRender, err)
	}
	path := filepath.Join(outputDir, Filename(r.opts.Name, date, v.Language, v.Ordinal))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrRender, path, err)
	}
	r.logger.Info().
		Str("path", path).
		Int("questions", len(v.Questions)).
		Msg("variant rendered")
	return path, nil
}

// DontKnowChoice is the opt-out answer appended as the final choice of every
// rendered question, in the variant's language.
func DontKnowChoice(lang pool.Language) string {
	if lang == pool.LanguageRS {
		return dontKnowRS
	}
	return dontKnowEN
}

// questionsArray builds the JS literal for questionsPool. The correct field
// is the index of the correct choice after shuffling; the opt-out choice is
// appended last so it never collides with that index.
func questionsArray(questions []pool.Question, lang pool.Language) (string, error) {
	var b strings.Builder
	b.WriteString("[\n")
	for i, q := range questions {
		idx := q.CorrectIndex()
		if idx < 0 {
			return "", fmt.Errorf("question %d: missing correct-answer marker", i)
		}

		choices := make([]string, 0, len(q.Answers)+1)
		choices = append(choices, q.Answers...)
		choices = append(choices, DontKnowChoice(lang))
		choicesJSON, err := json.Marshal(choices)
		if err != nil {
			return "", fmt.Errorf("question %d: %v", i, err)
		}
		textJSON, err := json.Marshal(q.Text)
		if err != nil {
			return "", fmt.Errorf("question %d: %v", i, err)
		}

		fmt.Fprintf(&b, "    {\n      question: %s,\n      choices: %s,\n      correct: %d\n    }",
			textJSON, choicesJSON, idx)
		if i < len(questions)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ]")
	return b.String(), nil
}

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
)

func escapeJS(s string) string {
	return jsEscaper.Replace(s)
}

type scriptData struct {
	Title         string
	Name          string
	Description   string
	Confirmation  string
	ResultsSheet  string
	Points        int
	QuestionCount int
	QuestionsJS   string
}

var scriptTemplate = template.Must(template.New("appsscript").Parse(`/**
 * Creates an AI Knowledge Quiz with {{.QuestionCount}} questions
 * - Autograded multiple choice questions with {{.Points}} point(s) each
 * - Immediate feedback showing correct answers and score
 * - Email notification with PASS/FAIL result (80% threshold)
 * - Centralized response collection in Google Sheets: {{.ResultsSheet}}
 */
function createRandomAIQuiz() {
  const questionsPool = {{.QuestionsJS}};

  // Use questions in order (no shuffling)
  const selectedQuestions = questionsPool;

  // Create the quiz form
  const form = FormApp.create('{{.Title}}')
    .setIsQuiz(true)
    .setCollectEmail(true)
    .setShowLinkToRespondAgain(false);

  form.setTitle('{{.Title}}');
  form.setDescription('{{.Description}}');

  // Link form to Google Sheets for centralized response collection
  try {
    const spreadsheetId = '{{.ResultsSheet}}';
    form.setDestination(FormApp.DestinationType.SPREADSHEET, spreadsheetId);
    Logger.log(` + "`" + `✅ Form linked to Google Sheets: ${spreadsheetId}` + "`" + `);
  } catch (error) {
    Logger.log(` + "`" + `⚠️  Could not link to spreadsheet: ${error.message}` + "`" + `);
    Logger.log('Form will store responses in its own response sheet');
  }

  // Optional settings for better UX
  form.setPublishingSummary(false);
  form.setLimitOneResponsePerUser(true);
  form.setConfirmationMessage('{{.Confirmation}}');

  // Helper function to add a fully-configured MC question
  const addMCQuestion = (questionData) => {
    const item = form.addMultipleChoiceItem();
    item.setTitle(questionData.question)
        .setPoints({{.Points}})
        .setRequired(true);

    // Build choices with exactly one correct answer
    const choices = questionData.choices.map((choice, index) =>
      item.createChoice(choice, index === questionData.correct)
    );
    item.setChoices(choices);

    // Optional feedback for immediate learning
    const fbCorrect = FormApp.createFeedback().setText('Correct! ✅').build();
    const fbIncorrect = FormApp.createFeedback().setText('Review this topic.').build();
    item.setFeedbackForCorrect(fbCorrect);
    item.setFeedbackForIncorrect(fbIncorrect);

    return item;
  };

  // Add all selected questions to the form
  selectedQuestions.forEach(questionData => {
    addMCQuestion(questionData);
  });

  // Clean up any existing triggers for this handler to avoid duplicates
  ScriptApp.getProjectTriggers()
    .filter(trigger => trigger.getHandlerFunction() === 'onFormSubmit')
    .forEach(trigger => ScriptApp.deleteTrigger(trigger));

  // Create the form submission trigger for PASS/FAIL email logic
  ScriptApp.newTrigger('onFormSubmit')
    .forForm(form)
    .onFormSubmit()
    .create();

  const totalPoints = selectedQuestions.length * {{.Points}};
  const passingScore = Math.ceil(totalPoints * 0.8);

  Logger.log('=== QUIZ CREATED SUCCESSFULLY ===');
  Logger.log(` + "`" + `Questions: ${selectedQuestions.length}` + "`" + `);
  Logger.log(` + "`" + `Points per question: {{.Points}}` + "`" + `);
  Logger.log(` + "`" + `Total possible points: ${totalPoints}` + "`" + `);
  Logger.log(` + "`" + `Passing score (80%): ${passingScore} points` + "`" + `);
  Logger.log('');
  Logger.log('Form URLs:');
  Logger.log('Edit form: ' + form.getEditUrl());
  Logger.log('Live quiz: ' + form.getPublishedUrl());
  Logger.log('');
  Logger.log('✅ Trigger installed for PASS/FAIL email notifications');

  return {
    publishedUrl: form.getPublishedUrl(),
    editUrl: form.getEditUrl(),
    formId: form.getId()
  };
}

/**
 * On submit: compute score by comparing responses to marked correct choices
 * for all Multiple Choice items, then email PASS/FAIL at 80%.
 */
function onFormSubmit(e) {
  const form = e.source;
  const response = e.response;

  const email = response.getRespondentEmail();
  if (!email) return;

  const mcItems = form.getItems(FormApp.ItemType.MULTIPLE_CHOICE);
  let totalPoints = 0;
  let earnedPoints = 0;

  mcItems.forEach(item => {
    const mci = item.asMultipleChoiceItem();
    const points = mci.getPoints() || 0;
    totalPoints += points;

    const ir = response.getResponseForItem(item);
    const answer = ir ? ir.getResponse() : null;

    const correctChoice = mci.getChoices().find(c => c.isCorrectAnswer());
    const correctValue = correctChoice ? correctChoice.getValue() : null;

    if (answer !== null && correctValue !== null && answer === correctValue) {
      earnedPoints += points;
    }
  });

  const pct = totalPoints > 0 ? (earnedPoints / totalPoints) * 100 : 0;
  const passed = pct >= 80;

  const subject = ` + "`" + `{{.Name}}: ${Math.round(pct)}% — ${passed ? 'PASS ✅' : 'FAIL ❌'}` + "`" + `;

  const HERO_IMAGE_URL = ` + "`" + `https://cdn.haip.hooloovoo.rs/${passed ? "pass" : "fail"}.jpg` + "`" + `;
  const heroBlob = UrlFetchApp.fetch(HERO_IMAGE_URL, { muteHttpExceptions: true }).getBlob().setName("hero.jpg");

  const textBody = ` + "`" + `Hvala što ste učestvovali u kvizu! / Thanks for taking the quiz!

🎯: ${earnedPoints} / ${totalPoints} (${pct.toFixed(1)}%)
🏁: ${passed ? 'PASS ✅' : 'FAIL ❌'}` + "`" + `;

  const htmlBody = ` + "`" + `<!doctype html>
<html lang="en">
  <body style="margin:0;padding:0;background:#f6f6f6;">
    <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#f6f6f6;">
      <tr>
        <td align="center" style="padding:24px;">
          <table role="presentation" cellpadding="0" cellspacing="0" width="600" style="max-width:600px;background:#ffffff;border-radius:8px;overflow:hidden;">
            <tr>
              <td align="center" style="padding:24px;">
                <h1 style="margin:0;font-family:Arial,Helvetica,sans-serif;font-size:20px;line-height:1.3;color:#222;">
                  {{.Name}}
                </h1>
                <p style="font-family:Arial,Helvetica,sans-serif;color:#555;margin:12px 0 24px;">
                  Hvala što ste učestvovali u kvizu! / Thanks for taking the quiz!
                </p>
              </td>
            </tr>

            <tr>
              <td style="padding:0 24px 24px;">
                <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="border:1px solid #eee;border-radius:8px;">
                  <tr>
                    <td style="padding:16px 20px;font-family:Arial,Helvetica,sans-serif;color:#333;">
                      <div style="font-size:16px;margin-bottom:6px;">🎯: <strong>${earnedPoints} / ${totalPoints}</strong> (${pct.toFixed(1)}%)</div>
                      <div style="font-size:16px;">🏁: <strong>${passed ? "PASS ✅" : "FAIL ❌"}</strong></div>
                    </td>
                  </tr>
                </table>
              </td>
            </tr>

            <!-- HERO as CID (no hosting needed) -->
            <tr>
              <td align="center" style="padding:0 24px 24px;">
                <img src="cid:hero-cid" width="600" height="200" alt="Hero"
                     style="display:block;border:0;outline:0;text-decoration:none;margin:0 auto;max-width:100%;height:auto;">
              </td>
            </tr>

            <tr>
              <td style="padding:0 24px 24px;">
                <p style="font-family:Arial,Helvetica,sans-serif;color:#666;margin:0;">
                  Ova poruka je automatski poslata nakon podnošenja Google Forme.
                </p>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>` + "`" + `;

  MailApp.sendEmail({
    to: email,
    subject: subject,
    body: textBody,
    htmlBody: htmlBody,
    inlineImages: {
      "hero-cid": heroBlob
    },
    name: "{{.Name}} Quiz"
  });
}
`))
