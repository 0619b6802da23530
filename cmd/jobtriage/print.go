package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"JobTriage/internal/classifier"
	"JobTriage/internal/domain"
	"JobTriage/internal/usecase"
)

func printQueues(out io.Writer, snap usecase.Snapshot) {
	p := snap.Partition()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	for _, q := range classifier.Queues() {
		jobs := p.Get(q)
		fmt.Fprintf(w, "== %s (%d)\n", q, len(jobs))
		for _, job := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				job.ProcessingStatus, job.ApplicationStatus, score(job), label(job), job.URL)
		}
	}

	if stats := p.AppliedStats(); len(stats) > 0 {
		fmt.Fprint(w, "== applied stats\n")
		for _, s := range domain.ApplicationStatuses() {
			if n := stats[s]; n > 0 {
				fmt.Fprintf(w, "%s\t%d\n", s, n)
			}
		}
	}
}

func printProgress(out io.Writer, snap usecase.Snapshot) {
	p := snap.Partition()
	fmt.Fprintf(out, "in progress: %d, needs attention: %d, to review: %d\n",
		len(p.InProgress()), len(p.AttentionRequired()), len(p.Active))
}

func reportSubmission(out io.Writer, d *usecase.Dispatcher, res domain.SubmitResult, err error) error {
	if dup, ok := domain.IsDuplicate(err); ok {
		fmt.Fprintln(out, "nothing added: already tracked")
		printCandidates(out, dup.Candidates)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "added %d\n", res.Added)
	printCandidates(out, d.Duplicates().List())
	return nil
}

func printCandidates(out io.Writer, candidates []domain.DuplicateCandidate) {
	for _, c := range candidates {
		company := c.Company
		if company == "" {
			company = "-"
		}
		fmt.Fprintf(out, "  duplicate %s (seen %s, %s); run `jobtriage rescan %s` to start over\n",
			c.URL, c.PreviouslySeenDate, company, c.URL)
	}
}

func score(job domain.Job) string {
	if job.SuitabilityScore == nil {
		return "-"
	}
	return fmt.Sprintf("%d%% %s", *job.SuitabilityScore, classifier.ScoreBand(*job.SuitabilityScore))
}

func label(job domain.Job) string {
	switch {
	case job.Company != "" && job.JobTitle != "":
		return job.JobTitle + " @ " + job.Company
	case job.JobTitle != "":
		return job.JobTitle
	case job.Company != "":
		return job.Company
	}
	return "-"
}
